package injector

import "strings"

// Insert returns content with tag placed immediately before the first
// </body> (ignoring case), else before the first </html>, else appended on a
// new line. The closing tag itself is left as written.
func Insert(content, tag string) string {
	for _, closing := range []string{"</body>", "</html>"} {
		if i := indexASCIIFold(content, closing); i >= 0 {
			return content[:i] + tag + "\n" + content[i:]
		}
	}
	return content + "\n" + tag
}

// HasScript reports whether content already references scriptURL.
func HasScript(content, scriptURL string) bool {
	return strings.Contains(content, scriptURL)
}

// ScriptTag returns the script element referencing scriptURL.
func ScriptTag(scriptURL string) string {
	return `<script src="` + scriptURL + `"></script>`
}

// indexASCIIFold finds needle (ASCII) in s ignoring ASCII case, returning a
// byte offset into s.
func indexASCIIFold(s, needle string) int {
	n := len(needle)
	for i := 0; i+n <= len(s); i++ {
		j := 0
		for ; j < n; j++ {
			if lowerASCII(s[i+j]) != lowerASCII(needle[j]) {
				break
			}
		}
		if j == n {
			return i
		}
	}
	return -1
}

func lowerASCII(b byte) byte {
	if 'A' <= b && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
