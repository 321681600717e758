// Package mocks contains hand-written test doubles for the auth ports.
package mocks
