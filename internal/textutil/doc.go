// Package textutil holds small text helpers shared by the subtitle formatter.
package textutil
