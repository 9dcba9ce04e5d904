// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the terminal palette and text styles for chatdesk.

All colors use Lip Gloss AdaptiveColor. Which side of each pair is used
depends on the theme mode stored in the local store:

	auto  - ask the terminal (termenv.HasDarkBackground)
	dark  - force the Dark variants
	light - force the Light variants

ACCESSIBILITY: status lines always carry an ASCII indicator ([OK], [X],
[!], [i]) so meaning never depends on color alone. NO_COLOR and dumb
terminals fall back to the Ascii profile.
*/
package styles
