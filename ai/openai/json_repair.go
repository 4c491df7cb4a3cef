// Copyright 2026 Veridict Labs
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


package openai

import "strings"

// stripFences removes markdown code fences that some models wrap around JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// repairJSON attempts to fix common JSON formatting issues from LLM responses.
// It specifically handles keys missing their opening quote, e.g.
// `, similarity_score":` becomes `, "similarity_score":`.
func repairJSON(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in)+16)

	for i := 0; i < len(in); {
		ch := in[i]
		out = append(out, ch)
		i++
		if ch != '{' && ch != ',' {
			continue
		}

		// Copy whitespace after the separator
		for i < len(in) && (in[i] == ' ' || in[i] == '\n' || in[i] == '\t') {
			out = append(out, in[i])
			i++
		}

		// A bare identifier here means a key lost its opening quote; it is
		// only a key if it runs up against `":`.
		if i >= len(in) || in[i] == '"' || !isKeyRune(in[i]) {
			continue
		}
		start := i
		for i < len(in) && isKeyRune(in[i]) {
			i++
		}
		if i+1 < len(in) && in[i] == '"' && in[i+1] == ':' {
			out = append(out, '"')
		}
		out = append(out, in[start:i]...)
	}

	return string(out)
}

func isKeyRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == ' '
}
