package access

type AccessState string

const (
	AccessEnrolled AccessState = "enrolled"
	AccessPreview  AccessState = "preview"
	AccessLocked   AccessState = "locked"
)
