// Package extractor reads an Anghami playlist out of a rendered browser page.
//
// # Session
//
// [AnghamiExtractor] works against the [Page] interface. [ChromePage] implements it with chromedp,
// so a real Chromium renders the single-page app. Session cookies captured from the browser's
// developer tools (see [shared.ParseCurlCommand]) are installed before navigation; without them the
// login page is opened and [Options.AwaitLogin] blocks until the user has signed in.
//
// # Algorithm
//
//  1. Navigate to the playlist. Landing on /login is an authentication failure.
//  2. Poll for the first title cell, bounded by the page timeout.
//  3. Scroll the last row into view until the row count stops growing.
//  4. Hide the "Recommended" section.
//  5. Parse the serialized page with golang.org/x/net/html ([ParsePlaylist]).
//  6. Compare the row count against the "N songs" label and warn on a mismatch.
//
// Failures are reported as [*ExtractionError].
package extractor
