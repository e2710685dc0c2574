package content

import _ "embed"

// builtinContent is the last-resort sample set used when both the primary
// and legacy documents are unreadable. Small on purpose: enough to keep a
// session playable until the app can be reinstalled.
//
//go:embed builtin_content.json
var builtinContent []byte
