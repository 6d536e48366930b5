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

package upload_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/guestsnap/guestsnap/pkg/upload"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple name", "Jane Doe", "Jane_Doe"},
		{"leading and trailing spaces", "  Jane Doe  ", "Jane_Doe"},
		{"path traversal", "../../etc", "etc"},
		{"absolute path", "/etc/passwd", "etcpasswd"},
		{"hyphen runs", "mary--jane  watson", "mary_jane_watson"},
		{"accented letters", "Renée Müller", "Renee_Muller"},
		{"only punctuation", "!!!  ...", ""},
		{"empty", "", ""},
		{"underscores kept", "guest_42", "guest_42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := upload.Sanitize(tt.input)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "..")
			assert.NotContains(t, got, "/")
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "trip.jpg", "trip.jpg"},
		{"uppercase extension", "My Trip.JPG", "My_Trip.jpg"},
		{"traversal stripped", "../../etc/passwd", "passwd"},
		{"windows separators", `..\..\boot.ini`, "boot.ini"},
		{"spaces in stem", "beach day 01.png", "beach_day_01.png"},
		{"no extension", "notes", "notes"},
		{"dot only", ".", ""},
		{"hidden file", ".jpg", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := upload.SanitizeFilename(tt.input)
			assert.Equal(t, tt.want, got)
			assert.False(t, strings.ContainsAny(got, `/\`))
		})
	}
}
