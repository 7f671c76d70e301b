// Package record turns raw search payloads into the pieces the curator needs.
//
// A raw batch is zero or more JSON objects written back to back, sometimes
// with corrupted bytes between them. Scanner recovers the objects, Decode
// resolves each into a Primary or Reshared record, and CleanText and
// NormalizeTimestamp prepare the fields for classification and output.
//
// Scanner resynchronises one character at a time after a decode failure. If
// corruption happens to leave behind text that is itself valid JSON, that text
// is accepted as a value; callers only see objects, but a corrupted fragment
// such as `{}` will still be yielded.
package record
