// Package domain models citizen reports about schools and the school records
// they refer to.
//
// # Reports
//
// A report is a free-text complaint a citizen files against one school. The
// service keeps reports as an ordered list: insertion order is display order.
// Reports carry an open status tag; the only value ever produced is
// [StatusNew], persisted as "Baru" to stay compatible with existing
// laporan_warga.csv files.
//
// Each report gets an in-process [Report.ID] when it is appended or loaded.
// IDs are decimal strings from a monotonic counter. They are not written to
// disk, so they are re-assigned in file order on every start.
//
// # Schools
//
// School records come from the government school search API
// (sekolah.data.kemendikdasmen.go.id). Field names follow the scraped JSON:
//
//	nama_sekolah       school name, upper-cased by the cleaning step
//	npsn               national school id, used for de-duplication
//	status             NEGERI (public) or SWASTA (private)
//	akreditasi         accreditation grade, "Tidak Terdata" when unknown
//	latitude/longitude WGS-84, 0 when unknown
//	alamat             street address, "-" when unknown
//	wilayah            kota/kabupaten the school was scraped for
//	bentuk_pendidikan  SMA, SMK, SMAK or MA
//
// The upstream API is loosely typed: coordinates and npsn arrive as strings,
// numbers or null. [Loose] absorbs that on decode and [NormalizeSchool]
// applies the coercions the dashboard relies on.
package domain
