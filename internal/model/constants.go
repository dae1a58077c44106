package model

// ProjectStatus video processing state
type ProjectStatus string

const (
	ProjectStatusProcessing ProjectStatus = "PROCESSING"
	ProjectStatusReady      ProjectStatus = "READY"
)

func (s ProjectStatus) String() string {
	return string(s)
}
