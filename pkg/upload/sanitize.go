// Copyright 2026 Guestsnap
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package upload

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	nonWordRe  = regexp.MustCompile(`[^\w\s-]`)
	collapseRe = regexp.MustCompile(`[\s-]+`)
	extRe      = regexp.MustCompile(`[^a-z0-9]`)
)

// Sanitize normalizes an untrusted guest-supplied name into a safe path
// segment. Accented letters are decomposed first so "Renée" becomes "Renee"
// instead of losing characters; everything outside word characters,
// whitespace and hyphens is stripped, and runs of whitespace or hyphens
// collapse into a single underscore. The result may be empty, which callers
// must reject.
func Sanitize(name string) string {
	name = strings.TrimSpace(name)
	name = norm.NFKD.String(name)
	name = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, name)
	name = nonWordRe.ReplaceAllString(name, "")
	return collapseRe.ReplaceAllString(name, "_")
}

// SanitizeFilename sanitizes the stem of a file name while preserving its
// extension, so "my trip.JPG" becomes "my_trip.jpg" and "../../etc/passwd"
// becomes "passwd". An unusable name yields an empty string.
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := filepath.Ext(base)
	stem := Sanitize(strings.TrimSuffix(base, ext))
	if stem == "" {
		return ""
	}
	ext = extRe.ReplaceAllString(strings.ToLower(ext), "")
	if ext == "" {
		return stem
	}
	return stem + "." + ext
}
