package uploadlog

import "github.com/gyeh/testnetstats/internal/model"

// assemble builds the attempt from a finished window. Attempts missing any of
// file name, size, duration or start time are dropped.
func assemble(st *windowState) (model.UploadAttempt, bool) {
	name, ok := st.knownFile()
	if !ok || st.sizeKB == nil || st.duration == nil || st.startTime == nil || *st.startTime == "" {
		return model.UploadAttempt{}, false
	}

	a := model.UploadAttempt{
		FileName:        name,
		SizeKB:          *st.sizeKB,
		Success:         st.success,
		Address:         cloneStr(st.address),
		DurationSeconds: *st.duration,
		StartTime:       *st.startTime,
	}

	if st.totalChunks != nil {
		total := *st.totalChunks
		succeeded := total
		if !st.allChunksExist {
			// A chunk can be reported both as newly stored and as already
			// present, so the set may exceed the declared total.
			succeeded = min(int64(len(st.storedChunks)), total)
		}
		a.TotalChunks = &total
		a.SuccessfulChunks = &succeeded
	}

	return a, true
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
