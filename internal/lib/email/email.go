// Package email builds the HTML messages queued for delivery.
package email

import (
	"fmt"
	"strings"

	"linkshare/internal/models"
)

func Activation(clientURL, to, token string) models.EmailMessage {
	return models.EmailMessage{
		To:      to,
		Subject: "Complete your registration",
		HTML: fmt.Sprintf(`
          <html>
            <h3>Verify your email address</h3>
            <p>Please use the following link to complete your registration: </p>
            <p>%s/auth/activate/%s</p>
          </html>`, clientURL, token),
	}
}

func PasswordReset(clientURL, to, token string) models.EmailMessage {
	return models.EmailMessage{
		To:      to,
		Subject: "Reset your password",
		HTML: fmt.Sprintf(`
          <html>
            <h3>Reset Password Link</h3>
            <p>Please use the following link to reset your password: </p>
            <p>%s/auth/password/reset/%s</p>
          </html>`, clientURL, token),
	}
}

// LinkPublished notifies a subscriber that a new link landed in one of the
// categories they follow.
func LinkPublished(clientURL, to string, link models.Link, categories []models.Category) models.EmailMessage {
	var blocks []string
	for _, c := range categories {
		blocks = append(blocks, fmt.Sprintf(`
                <div>
                  <h2>%s</h2>
                  <img src="%s" alt="%s" style="height:50px;" />
                  <h3><a href="%s/links/%s">Check it out!</a></h3>
                </div>`, c.Name, c.ImageURL, c.Name, clientURL, c.Slug))
	}

	return models.EmailMessage{
		To:      to,
		Subject: "New link published",
		HTML: fmt.Sprintf(`
          <html>
            <h3>New link published</h3>
            <p>A new link titled <b>%s</b> has just been published in the following categories: </p>
            %s
            <br />
            <p>Do not wish to receive notifications?</p>
            <p>Turn off notifications by going to your <b>dashboard</b> > <b>update profile</b> and <b>uncheck the categories</b></p>
            <p>%s/user/profile/update</p>
          </html>`, link.Title, strings.Join(blocks, "--------------"), clientURL),
	}
}
