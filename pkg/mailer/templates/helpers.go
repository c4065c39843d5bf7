package templates

import (
	"time"
)

const timeLayout = "02 January 2006, 15:04 MST"

// Brand carries the sender-side values every email shows.
type Brand struct {
	CompanyName string
	AppName     string
	SupportURL  string
}

// Option pattern
type Option func(*EmailData)

func WithResetURL(url string) Option { return func(d *EmailData) { d.ResetURL = url } }
func WithCode(code string) Option    { return func(d *EmailData) { d.Code = code } }

func WithExpiresAt(t time.Time) Option {
	return func(d *EmailData) {
		if t.IsZero() {
			return
		}
		utc := t.UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format(timeLayout)
	}
}

// NewEmailData fills the brand fields, then applies opts.
func NewEmailData(b Brand, typ, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,

		CompanyName: b.CompanyName,
		AppName:     b.AppName,
		SupportURL:  b.SupportURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}
