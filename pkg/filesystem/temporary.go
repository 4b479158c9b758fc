package filesystem

const (
	// TemporaryNamePrefix is the file name prefix used for all temporary files
	// and directories created by this package. It may be suffixed with
	// additional elements if desired.
	TemporaryNamePrefix = ".mutagen-temporary-"
)
