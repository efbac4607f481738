package router

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	optionalParam = regexp.MustCompile(`\((.*?)\)`)
	namedParam    = regexp.MustCompile(`(\(\?)?:\w+`)
	splatParam    = regexp.MustCompile(`\*\w+`)
	escapeRegExp  = regexp.MustCompile(`[\-{}\[\]+?.,\\^$|#\s]`)
)

// compilePattern converts a route pattern into an anchored regular
// expression. ":name" captures one path segment, "*name" captures the rest of
// the path and "(...)" marks an optional part. A trailing query string is
// captured by the last group.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	expr := escapeRegExp.ReplaceAllStringFunc(pattern, func(s string) string {
		return `\` + s
	})
	expr = optionalParam.ReplaceAllString(expr, `(?:$1)?`)
	expr = namedParam.ReplaceAllStringFunc(expr, func(s string) string {
		if strings.HasPrefix(s, "(?") {
			return s
		}
		return `([^/?]+)`
	})
	expr = splatParam.ReplaceAllString(expr, `([^?]*?)`)
	return regexp.Compile(`^` + expr + `(?:\?([\s\S]*))?$`)
}

// extractParameters returns the decoded captured segments and the raw query
func extractParameters(re *regexp.Regexp, fragment string) ([]string, string, bool) {
	matches := re.FindStringSubmatch(fragment)
	if matches == nil {
		return nil, "", false
	}

	groups := matches[1:]
	query := groups[len(groups)-1]
	args := make([]string, 0, len(groups)-1)
	for _, param := range groups[:len(groups)-1] {
		if decoded, err := url.PathUnescape(param); err == nil {
			param = decoded
		}
		args = append(args, param)
	}
	return args, query, true
}

var routeStripper = regexp.MustCompile(`^[#/]|\s+$`)

// NormalizeFragment strips a leading '#' or '/' and trailing whitespace
func NormalizeFragment(fragment string) string {
	return routeStripper.ReplaceAllString(fragment, "")
}
