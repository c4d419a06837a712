package seed

// File is the top-level structure of a seed file: a plain list of links.
//
//   - name: Jira
//     url: jira.example.com/browse/$
//     variables: [OPS-1, OPS-2]
type File []Entry

// Entry is one link of the seed file
type Entry struct {
	Name      string   `yaml:"name"`
	URL       string   `yaml:"url"`
	Variables []string `yaml:"variables,omitempty"`
}
