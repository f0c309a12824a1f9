package notify

// DigestMailer renders and sends the digest in one step.
type DigestMailer struct {
	renderer *HTMLEmailRenderer
	sender   *EmailSender
}

// NewDigestMailer wires the default renderer to an SMTP sender.
func NewDigestMailer(cfg EmailConfig) *DigestMailer {
	return &DigestMailer{
		renderer: NewHTMLEmailRenderer(),
		sender:   NewEmailSender(cfg),
	}
}

// SendDigest renders the digest and submits it over SMTP.
func (d *DigestMailer) SendDigest(data DigestData) error {
	msg, err := d.renderer.Render(data)
	if err != nil {
		return err
	}
	return d.sender.Send(msg)
}
