// Package mocks provides hand-rolled mock implementations of the store
// interfaces for testing. Each mock exposes function fields so individual
// tests override exactly the behavior they exercise; unset fields fall back
// to zero-value returns.
package mocks
