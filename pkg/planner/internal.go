package planner

type ItemRef struct {
	Path string
	Size int64
}

// Phase2Result is the classification of the work tree against the master index.
type Phase2Result struct {
	Existing []ItemRef // master paths present and identical in work
	Extra    []ItemRef // work files with no identical master file at the same path
	// OtherPath maps an extra work path to a master path holding the same content.
	OtherPath map[string]string
}
