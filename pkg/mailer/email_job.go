package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Template names one of the embedded template sets; Data feeds it.
type EmailJob struct {
	To       string         `json:"to"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data,omitempty"`
}

// MessageType sets the AMQP type property so consumers can route by template.
func (j EmailJob) MessageType() string { return "email." + j.Template }
