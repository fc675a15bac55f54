// Package hashutil computes the two fingerprints the Reconciler diffs
// against: a per-record digest sensitive to every semantic field of a
// QA record, and a whole-corpus digest recorded in the ledger.
// Both are recomputed from scratch on demand — no running hash is
// maintained, matching the teacher's document-id hashing in
// service.hashString, generalized from SHA1 to the MD5 digest the
// spec calls for.
package hashutil

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/kxddry/ragqa/internal/domain"
)

// RecordFingerprint returns a lowercase hex MD5 digest of r's canonical
// form: question, answer, category, audience, then keywords sorted
// lexicographically and comma-joined, in that fixed field order. The
// result is insensitive to keyword ordering and sensitive to any edit
// of the other fields. Source is deliberately excluded — it is
// provenance metadata, not semantic content.
func RecordFingerprint(r domain.QARecord) string {
	keywords := append([]string(nil), r.Keywords...)
	sort.Strings(keywords)

	canonical := strings.Join([]string{
		r.Question,
		r.Answer,
		r.Category,
		r.Audience,
		strings.Join(keywords, ","),
	}, "\x00")

	sum := md5.Sum([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// CorpusFingerprint returns a lowercase hex MD5 digest of the raw
// corpus file bytes, as stored on disk.
func CorpusFingerprint(raw []byte) string {
	sum := md5.Sum(raw)
	return hex.EncodeToString(sum[:])
}
