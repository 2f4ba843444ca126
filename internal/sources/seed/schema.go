package seed

// Item is one seeded entry.
type Item struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Link        string `yaml:"link"`
}

// File is the root structure of the seed file: category label -> entries.
//
//	App:
//	  - name: Install guide
//	    description: First steps
//	    link: https://docs.example.com/app/install
type File map[string][]Item
