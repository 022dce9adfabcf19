// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package atoms implements the auxiliary tool overlays: web search over
// the Google Custom Search JSON API, YouTube video summaries via oEmbed
// metadata, and flashcard generation. A single parameterized Service
// runs all atom types; the result string of a job is handed back to the
// chat orchestrator, which injects it as an assistant message.
package atoms
