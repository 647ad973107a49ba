// Copyright 2026 The Alis Build Platform. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package gsheets is a client for the Google Spreadsheets XML/Atom feed API. It
maintains an object graph of Spreadsheet, Worksheet, Row and Cell entities
reconstructed from server feeds, and serializes local mutations back into the
wire format with the service's merge semantics.

A Spreadsheet is created from its key and works anonymously against published
spreadsheets; installing a static token or a Google service-account credential
switches it to authenticated (private/full) access, with service-account tokens
renewed transparently on expiry.

Rows are saved by patching only the changed column elements inside the XML
fragment the service originally returned, so server-managed metadata survives a
save. Cells can be saved one at a time or collectively through the batch
protocol, which correlates results back to cells by their R<row>C<col> batch id.
*/
package gsheets // import "go.alis.build/gsheets"
