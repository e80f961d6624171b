// Package prompt collects the signup form interactively in a terminal. Each
// field is asked in definition order through a PromptDriver, the answers are
// submitted to a signup.Session, and invalid submissions are asked again with
// the previous answers as defaults and the errors shown inline.
package prompt
