// Package dictionary holds the word and kanji entries served by otango.
//
// Entries are stored as JSON documents through store.DictionaryStore. Reads
// are public; writes are expected to come from requests that passed
// auth.Authenticate with Admin, and record the principal found in the
// context as the editor.
//
// Definitions are Markdown. RenderWord turns a word into an HTML page with
// goldmark; raw HTML inside definitions is dropped.
package dictionary
