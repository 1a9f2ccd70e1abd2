// Package aggregates implements course writes on top of the table repos.
// Each write locks the course row, rebuilds whatever it touches, and commits
// once; callers never see a half-written tree.
package aggregates
