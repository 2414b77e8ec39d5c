// Package generation turns a topic or title into the text artifacts a video
// needs: title candidates, hooks, a narration script, a description, and
// search tags. All generators call the LLM with embedded prompt templates
// that can be overridden from a YAML file on disk.
package generation
