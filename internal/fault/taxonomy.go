package fault

import (
	"regexp"
	"strings"

	"google.golang.org/grpc/codes"
)

// sessionNotFoundPattern matches the message the server sends when a
// session was garbage collected or deleted while the client still held
// it. The same text shows up in raw status errors and in API errors, and
// the carried code is not reliable, so matching is on text alone. Session
// names may contain spaces; the resource runs to the end of the line.
var sessionNotFoundPattern = regexp.MustCompile(`NOT_FOUND: Session not found: (\S[^\r\n]*)`)

// IsSessionNotFound reports whether text is a session-not-found message and
// returns the session resource path it names, trimmed of surrounding space.
func IsSessionNotFound(text string) (resource string, ok bool) {
	m := sessionNotFoundPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// SelectKind picks the variant for a classified failure and returns the
// retryable flag that variant carries. Priority:
//
//  1. session-not-found message -> KindSessionNotFound, never retryable
//  2. ABORTED                   -> KindAborted, always retryable
//  3. otherwise                 -> KindGeneric with the classifier verdict
//
// The session check looks at both the bare description and the rendered
// "<CODE>: <description>" message.
func SelectKind(c codes.Code, description string, retryable bool) (Kind, bool) {
	if _, ok := sessionResource(c, description); ok {
		return KindSessionNotFound, false
	}
	if c == codes.Aborted {
		return KindAborted, true
	}
	return KindGeneric, retryable
}

func sessionResource(c codes.Code, description string) (string, bool) {
	if resource, ok := IsSessionNotFound(description); ok {
		return resource, true
	}
	return IsSessionNotFound(renderMessage(c, description))
}

// renderMessage formats "<CODE>: <description>", leaving descriptions that
// already carry the code prefix alone.
func renderMessage(c codes.Code, description string) string {
	name := CodeName(c)
	if description == "" {
		return name
	}
	if strings.HasPrefix(description, name+": ") {
		return description
	}
	return name + ": " + description
}
