package model

import "time"

// RateCache is the exchange_rates subtree of the shared document: conversion
// factors relative to the base currency, plus bookkeeping about where and
// when they were obtained.
type RateCache struct {
	Rates       map[string]float64 `json:"rates"`
	LastUpdated time.Time          `json:"last_updated"`
	Source      string             `json:"source"`
}

// Valid reports whether the cache can serve the given currencies: it must be
// younger than ttl and contain a factor for every required code.
func (c *RateCache) Valid(now time.Time, ttl time.Duration, required []string) bool {
	if c == nil || c.LastUpdated.IsZero() {
		return false
	}
	if now.Sub(c.LastUpdated) >= ttl {
		return false
	}
	for _, code := range required {
		if _, ok := c.Rates[code]; !ok {
			return false
		}
	}
	return true
}
