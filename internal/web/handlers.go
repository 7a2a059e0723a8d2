package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"ytgrab/internal/audio"
	"ytgrab/internal/downloader"
	"ytgrab/internal/metadata"
	"ytgrab/internal/pipeline"
	"ytgrab/internal/review"
)

type ResolveRequest struct {
	URL      string `json:"url"`
	Advanced *bool  `json:"advanced,omitempty"`
}

type JobResponse struct {
	ID          string         `json:"id"`
	URL         string         `json:"url"`
	Status      JobStatus      `json:"status"`
	Stage       int            `json:"stage"`
	Message     string         `json:"message,omitempty"`
	Saved       []string       `json:"saved,omitempty"`
	Error       string         `json:"error,omitempty"`
	Review      *ReviewPayload `json:"review,omitempty"`
	CreatedAt   string         `json:"created_at"`
	StartedAt   *string        `json:"started_at,omitempty"`
	CompletedAt *string        `json:"completed_at,omitempty"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.URL == "" {
		http.Error(w, "URL is required", http.StatusBadRequest)
		return
	}

	jobConfig := s.config
	jobConfig.URL = req.URL
	if req.Advanced != nil {
		jobConfig.Advanced = *req.Advanced
	}

	job := s.jobMgr.CreateJob(req.URL, jobConfig)
	s.logger.Info("Created job %s for URL: %s", job.ID, req.URL)

	go s.processJob(job)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.jobToResponse(job))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobs := s.jobMgr.ListJobs()
	responses := make([]*JobResponse, len(jobs))
	for i, job := range jobs {
		responses[i] = s.jobToResponse(job)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

func (s *Server) handleJobAction(w http.ResponseWriter, r *http.Request) {
	// Extract job ID from path: /api/jobs/{id}, /api/jobs/{id}/cancel
	// or /api/jobs/{id}/review
	path := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	jobID := parts[0]

	// Handle GET /api/jobs/{id}
	if r.Method == http.MethodGet && len(parts) == 1 {
		job, err := s.jobMgr.GetJob(jobID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.jobToResponse(job))
		return
	}

	// Handle POST /api/jobs/{id}/cancel
	if r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "cancel" {
		job, err := s.jobMgr.GetJob(jobID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		if job.Cancel != nil {
			job.Cancel()
		}

		s.jobMgr.UpdateJob(jobID, func(j *Job) {
			j.Status = StatusCancelled
		})

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "cancelled"})
		return
	}

	// Handle POST /api/jobs/{id}/review — alternative to the websocket
	// for answering a pending review request.
	if r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "review" {
		var answer struct {
			RequestID string `json:"request_id"`
			Index     int    `json:"index"`
		}
		if err := json.NewDecoder(r.Body).Decode(&answer); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if !s.jobMgr.RespondReview(jobID, answer.RequestID, answer.Index) {
			http.Error(w, "No matching review request", http.StatusConflict)
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
		return
	}

	http.Error(w, "Invalid request", http.StatusBadRequest)
}

// jobPresenter publishes review requests as job updates so connected
// clients can render them.
type jobPresenter struct {
	server *Server
	jobID  string
}

func (p *jobPresenter) Present(req review.Request) {
	payload := &ReviewPayload{
		RequestID:   req.ID,
		RawTitle:    req.RawTitle,
		ParsedTitle: req.ParsedTitle,
		Candidates:  make([]CandidateView, len(req.Candidates)),
	}
	for i, c := range req.Candidates {
		payload.Candidates[i] = CandidateView{
			Title:   c.Title,
			Artist:  c.Artist,
			Album:   c.Album,
			Year:    c.Year,
			Genre:   c.Genre,
			ISRC:    c.ISRC,
			Source:  c.Source,
			Artwork: c.Artwork,
		}
	}

	p.server.jobMgr.UpdateJob(p.jobID, func(j *Job) {
		j.Status = StatusReviewing
		j.Review = payload
	})
}

func (s *Server) processJob(job *Job) {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	cfg := job.Config
	tools := audio.New(cfg.FFmpegPath, cfg.FFprobePath)
	dl := downloader.New(cfg.YtdlpPath, s.logger)

	var reviewer metadata.Reviewer
	var coord *review.Coordinator
	if !cfg.AutoSelect {
		coord = review.NewCoordinator(&jobPresenter{server: s, jobID: job.ID})
		reviewer = coord
	}

	s.jobMgr.UpdateJob(job.ID, func(j *Job) {
		j.Cancel = cancel
		j.Status = StatusRunning
		j.coordinator = coord
	})

	s.logger.Info("Starting job %s", job.ID)

	resolver := metadata.NewResolver(pipeline.BuildSources(cfg, tools, s.logger), reviewer, s.logger, cfg.Advanced)

	hooks := pipeline.Hooks{
		OnStage: func(pct int, msg string) {
			s.jobMgr.UpdateJob(job.ID, func(j *Job) {
				j.Stage = pct
				j.Message = msg
				if j.Status == StatusReviewing && j.Review == nil {
					j.Status = StatusRunning
				}
			})
		},
		OnTrack: func(index, total int, path string, rec metadata.TrackRecord) {
			s.jobMgr.UpdateJob(job.ID, func(j *Job) {
				j.Saved = append(j.Saved, path)
			})
		},
		OnWarning: func(msg string) {
			s.logger.Warn("Job %s: %s", job.ID, msg)
		},
	}

	p := pipeline.New(cfg, s.logger, dl, tools, resolver, hooks)
	saved, err := p.Run(ctx, job.URL)
	if err != nil {
		s.logger.Error("Job %s failed: %v", job.ID, err)
		s.jobMgr.UpdateJob(job.ID, func(j *Job) {
			if j.Status != StatusCancelled {
				j.Status = StatusFailed
				j.Error = err.Error()
			}
			j.coordinator = nil
		})
		return
	}

	s.jobMgr.UpdateJob(job.ID, func(j *Job) {
		j.Status = StatusCompleted
		j.Saved = saved
		j.Stage = 100
		j.coordinator = nil
	})

	s.logger.Info("Job %s completed successfully", job.ID)
}

func (s *Server) jobToResponse(job *Job) *JobResponse {
	resp := &JobResponse{
		ID:        job.ID,
		URL:       job.URL,
		Status:    job.Status,
		Stage:     job.Stage,
		Message:   job.Message,
		Saved:     job.Saved,
		Error:     job.Error,
		Review:    job.Review,
		CreatedAt: job.CreatedAt.Format("2006-01-02 15:04:05"),
	}

	if job.StartedAt != nil {
		started := job.StartedAt.Format("2006-01-02 15:04:05")
		resp.StartedAt = &started
	}

	if job.CompletedAt != nil {
		completed := job.CompletedAt.Format("2006-01-02 15:04:05")
		resp.CompletedAt = &completed
	}

	return resp
}
