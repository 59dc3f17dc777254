// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package report exports poll history as an Excel workbook.
//
// The History sheet has one row per completed poll; the Results sheet has
// one row per option with its votes and rounded percentage.
package report
