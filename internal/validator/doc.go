// Package validator lints whole flow definitions before they are served.
package validator
