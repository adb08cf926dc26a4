package repos

import (
	"fmt"
	"strings"
)

// languageByGitignore guesses the primary language from the chosen template.
var languageByGitignore = map[string]string{
	"node":   "JavaScript",
	"python": "Python",
	"java":   "Java",
	"ruby":   "Ruby",
	"csharp": "C#",
}

var gitignoreBodies = map[string]string{
	"node":   "node_modules/\nnpm-debug.log*\ndist/\n.env\n",
	"python": "__pycache__/\n*.py[cod]\n.venv/\ndist/\n*.egg-info/\n",
	"java":   "*.class\ntarget/\nbuild/\n*.jar\n",
	"ruby":   "*.gem\n.bundle/\nvendor/bundle/\nlog/\ntmp/\n",
	"csharp": "bin/\nobj/\n*.user\n.vs/\n",
}

var licenseTitles = map[string]string{
	"mit":    "MIT License",
	"apache": "Apache License 2.0",
	"gpl-3":  "GNU General Public License v3.0",
	"bsd-2":  "BSD 2-Clause License",
}

func readmeBody(name, description string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", name)
	if description != "" {
		fmt.Fprintf(&b, "\n%s\n", description)
	}
	return b.String()
}

func licenseBody(license, owner string, year int) string {
	return fmt.Sprintf("%s\n\nCopyright (c) %d %s\n", licenseTitles[license], year, owner)
}
