package constants

// Static route constants
const (
	PublicRoute     = "/"
	APIPrefix       = "/api"
	AttachmentRoute = "/attachments"
)
