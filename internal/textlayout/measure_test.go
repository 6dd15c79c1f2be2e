/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package textlayout

import "testing"

func TestBasicWidthIsMonospace(t *testing.T) {
	m := NewBasic()
	if w := m.Width("abc"); w != 21 {
		t.Fatalf("Width(abc) = %v, want 21", w)
	}
	if m.Width("") != 0 {
		t.Fatalf("empty string must measure 0")
	}
	if met := m.Metrics(); met.Height <= 0 || met.Ascent <= 0 {
		t.Fatalf("bad metrics %+v", met)
	}
}

func TestFit(t *testing.T) {
	m := NewBasic()
	if got := Fit(m, "gain", 100); got != "gain" {
		t.Fatalf("Fit kept = %q", got)
	}
	// 7px per glyph: 49px holds four letters plus the ellipsis.
	if got := Fit(m, "frequency", 49); got != "freq..." {
		t.Fatalf("Fit shortened = %q", got)
	}
	if got := Fit(m, "frequency", 10); got != "" {
		t.Fatalf("Fit too narrow = %q", got)
	}
}
