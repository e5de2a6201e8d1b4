package seed

// File is the top-level structure of a seed catalog file.
//
//	videos:
//	  - title: Intro to Rust
//	    description: first steps
//	    url: http://x/1
type File struct {
	Videos []Entry `yaml:"videos"`
}

// Entry is one video to create. Ids and timestamps are always assigned by
// the repository, so the file cannot carry them.
type Entry struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	URL         string `yaml:"url"`
}
