package archiver

import "github.com/timmy/hearth/internal/domain"

// ScanResult holds the entity references derived from one transcript.
type ScanResult struct {
	UserIDs    []int64
	UploadRefs []*domain.Message
}

// ScanTranscript derives the user IDs and upload references a transcript
// mentions. User IDs are deduplicated within the result; cross-transcript
// deduplication happens when results are merged into the job.
func ScanTranscript(t *domain.Transcript) ScanResult {
	var res ScanResult
	seen := make(map[int64]struct{})

	for _, msg := range t.Messages {
		if msg.UserID != 0 {
			if _, ok := seen[msg.UserID]; !ok {
				seen[msg.UserID] = struct{}{}
				res.UserIDs = append(res.UserIDs, msg.UserID)
			}
		}
		if msg.Kind == domain.KindUpload {
			res.UploadRefs = append(res.UploadRefs, msg)
		}
	}

	return res
}

// scanTranscript merges one transcript's references into the job's discovery
// lists. Called from transcript pool workers.
func (j *Job) scanTranscript(t *domain.Transcript) {
	res := ScanTranscript(t)

	j.mu.Lock()
	defer j.mu.Unlock()

	for _, id := range res.UserIDs {
		if _, ok := j.seenUsers[id]; !ok {
			j.seenUsers[id] = struct{}{}
			j.userIDs = append(j.userIDs, id)
		}
	}
	j.uploadRefs = append(j.uploadRefs, res.UploadRefs...)
}
