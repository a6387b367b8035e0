//go:build !linux

package main

func isTerminal(int) bool { return false }
