package classifier

import (
	"net/url"
	"strings"
)

// DocumentProfile classifies a document as real source code or something
// the classifier should ignore (output panes, logs, config/markup files).
// It is computed fresh per event and never stored.
type DocumentProfile struct {
	Editable bool
	Reason   string
}

// editableSchemes are the only URI schemes that carry user-edited files
var editableSchemes = map[string]bool{
	"file":     true,
	"untitled": true,
}

// ignoredPathFragments reject documents backed by editor panes rather
// than files on disk
var ignoredPathFragments = []string{
	"extension-output",
	"output-channel",
	"debug-console",
	"scm/",
	"vscode-scm",
	"terminal",
}

// nonCodeLanguages is the denylist of language IDs that never count as
// source code for paste tracking
var nonCodeLanguages = map[string]bool{
	"plaintext":  true,
	"markdown":   true,
	"json":       true,
	"jsonc":      true,
	"log":        true,
	"diff":       true,
	"git-commit": true,
	"git-rebase": true,
	"scminput":   true,
	"xml":        true,
	"yaml":       true,
	"toml":       true,
	"ini":        true,
	"csv":        true,
	"tsv":        true,
}

// ProfileDocument decides whether a document should be watched for pastes
func ProfileDocument(doc Document) DocumentProfile {
	scheme := uriScheme(doc.URI)
	if !editableSchemes[scheme] {
		return DocumentProfile{Editable: false, Reason: "scheme " + scheme + " is not an editable document"}
	}

	lowered := strings.ToLower(doc.URI)
	for _, fragment := range ignoredPathFragments {
		if strings.Contains(lowered, fragment) {
			return DocumentProfile{Editable: false, Reason: "path references editor pane: " + fragment}
		}
	}

	lang := strings.ToLower(strings.TrimSpace(doc.LanguageID))
	if nonCodeLanguages[lang] {
		return DocumentProfile{Editable: false, Reason: "language " + lang + " is not tracked"}
	}

	return DocumentProfile{Editable: true}
}

// uriScheme extracts the scheme without requiring a fully valid URI.
// Malformed URIs degrade to an empty scheme, which is rejected upstream.
func uriScheme(uri string) string {
	if parsed, err := url.Parse(uri); err == nil && parsed.Scheme != "" {
		return strings.ToLower(parsed.Scheme)
	}
	if idx := strings.Index(uri, "://"); idx > 0 {
		return strings.ToLower(uri[:idx])
	}
	return ""
}
