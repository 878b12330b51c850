package routes

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/siffror/ai-rapportanalys-Render/internal/config"
	"github.com/siffror/ai-rapportanalys-Render/internal/logger"
	"github.com/siffror/ai-rapportanalys-Render/internal/session"
	"github.com/siffror/ai-rapportanalys-Render/internal/store"
	"github.com/siffror/ai-rapportanalys-Render/internal/telemetry"
	"github.com/siffror/ai-rapportanalys-Render/models"
	"github.com/siffror/ai-rapportanalys-Render/services"
	"github.com/siffror/ai-rapportanalys-Render/services/cache"
	"github.com/siffror/ai-rapportanalys-Render/services/ocr"
	"github.com/siffror/ai-rapportanalys-Render/utils"
)

// imageExts are handed straight to OCR instead of the text extractors.
var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
	".tif": true, ".tiff": true, ".bmp": true, ".gif": true,
}

// A PDF text layer shorter than this is treated as a scanned document and
// sent through OCR.
const scannedPDFThreshold = 100

// Deps bundles everything the analysis handlers need.
type Deps struct {
	Cfg       *config.Config
	Sessions  *session.Registry
	Extractor *services.Extractor
	Chunker   *services.Chunker
	Embedder  *services.Embedder
	Ranker    *services.Ranker
	Answerer  *services.Answerer
	Evaluator services.Evaluator
	Cache     cache.Store
	OCR       ocr.Engine
	History   *store.HistoryStore
	Metrics   *telemetry.Metrics
}

// SetupAnalysisRoutes registers the report-analysis API.
func SetupAnalysisRoutes(router *gin.Engine, deps *Deps) {
	api := router.Group("/api")

	api.POST("/session", createSession(deps))
	api.POST("/session/:id/source", loadSource(deps))
	api.POST("/session/:id/ask", askQuestion(deps))
	api.POST("/session/:id/analyze", analyzeReport(deps))
	api.POST("/session/:id/evaluate", evaluateAnswer(deps))
	api.GET("/session/:id/answer.txt", exportAnswerText(deps))
	api.GET("/session/:id/answer.pdf", exportAnswerPDF(deps))
	api.DELETE("/session/:id", deleteSession(deps))
	api.GET("/history", listHistory(deps))
}

func createSession(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := deps.Sessions.Create()
		c.JSON(http.StatusCreated, gin.H{
			"session_id": s.ID,
			"created_at": s.CreatedAt,
		})
	}
}

func getSession(deps *Deps, c *gin.Context) *session.Session {
	s, err := deps.Sessions.Get(c.Param("id"))
	if err != nil {
		utils.RespondWithNotFound(c, "session not found")
		return nil
	}
	return s
}

// loadSource installs a report source into the session. Accepts a multipart
// file, a "url" form value, or a "text" form value, in that order of
// precedence.
func loadSource(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := getSession(deps, c)
		if s == nil {
			return
		}

		var (
			report *models.Report
			err    error
		)

		switch {
		case hasFormFile(c):
			report, err = extractUpload(deps, c)
		case c.PostForm("url") != "":
			report, err = deps.Extractor.FetchURL(c.Request.Context(), c.PostForm("url"))
		case strings.TrimSpace(c.PostForm("text")) != "":
			report = services.PastedReport(c.PostForm("text"))
		default:
			utils.RespondWithBadRequest(c, "provide a file, a url or pasted text", nil)
			return
		}
		if err != nil {
			utils.RespondWithBadRequest(c, "could not read report source", err.Error())
			return
		}
		if strings.TrimSpace(report.Text) == "" {
			utils.RespondWithBadRequest(c, "the source contained no readable text", nil)
			return
		}

		s.SetReport(report)
		s.OCRPreview = report.Metadata.PreviewImage
		if deps.Metrics != nil {
			deps.Metrics.RecordExtraction(report.Metadata.Method, report.Metadata.CharacterCount)
		}
		logger.Info("report source loaded",
			"session", s.ID,
			"kind", report.SourceKind,
			"method", report.Metadata.Method,
			"chars", report.Metadata.CharacterCount)

		resp := gin.H{
			"source_id": report.SourceID,
			"kind":      report.SourceKind,
			"metadata":  report.Metadata,
			"preview":   report.Preview(5000),
		}
		if table := services.ListedCompaniesTable(report.Text); table != "" {
			resp["listed_companies"] = table
		}
		c.JSON(http.StatusOK, resp)
	}
}

func hasFormFile(c *gin.Context) bool {
	_, err := c.FormFile("file")
	return err == nil
}

func extractUpload(deps *Deps, c *gin.Context) (*models.Report, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, err
	}
	if deps.Cfg.MaxFileSize > 0 && fileHeader.Size > deps.Cfg.MaxFileSize {
		return nil, fmt.Errorf("file exceeds the %d byte limit", deps.Cfg.MaxFileSize)
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if imageExts[ext] {
		return ocrReport(deps, c, fileHeader.Filename, data)
	}

	report, err := deps.Extractor.ExtractFile(fileHeader.Filename, data)
	if err != nil {
		return nil, err
	}

	// A near-empty PDF text layer means the document is scanned.
	if ext == ".pdf" && len(strings.TrimSpace(report.Text)) < scannedPDFThreshold {
		logger.Info("PDF has no usable text layer, running OCR", "filename", fileHeader.Filename)
		return ocrReport(deps, c, fileHeader.Filename, data)
	}
	return report, nil
}

func ocrReport(deps *Deps, c *gin.Context, filename string, data []byte) (*models.Report, error) {
	if err := deps.OCR.Available(c.Request.Context()); err != nil {
		return nil, fmt.Errorf("OCR engine %q not available: %w", deps.OCR.Name(), err)
	}
	result, err := deps.OCR.ExtractText(c.Request.Context(), filename, data)
	if err != nil {
		return nil, err
	}
	return &models.Report{
		SourceID:    filename,
		SourceKind:  models.SourceUpload,
		Text:        result.Text,
		ExtractedAt: time.Now(),
		Metadata: models.ReportMetadata{
			Filename:       filename,
			Pages:          result.Pages,
			Method:         "ocr-" + deps.OCR.Name(),
			CharacterCount: len(result.Text),
			WordCount:      len(strings.Fields(result.Text)),
			OCRConfidence:  result.Confidence,
			PreviewImage:   result.PreviewImage,
		},
	}, nil
}

// askQuestion runs the retrieval pipeline: cached or fresh embeddings,
// ranking, answer generation, key figure extraction.
func askQuestion(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := getSession(deps, c)
		if s == nil {
			return
		}
		if s.Report == nil {
			utils.RespondWithBadRequest(c, "load a report source first", nil)
			return
		}

		var req struct {
			Question string `json:"question" binding:"required"`
			TopK     int    `json:"top_k"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "question is required", err.Error())
			return
		}

		ctx := c.Request.Context()
		cached, err := ensureEmbeddings(deps, c, s)
		if err != nil {
			utils.RespondWithInternalError(c, "could not embed the report", err.Error())
			return
		}

		contextText, ranked, err := deps.Ranker.Rank(ctx, req.Question, s.EmbeddedChunks, req.TopK)
		if err != nil {
			utils.RespondWithInternalError(c, "could not rank report chunks", err.Error())
			return
		}
		if contextText == "" {
			utils.RespondWithBadRequest(c, "the report produced no chunks to search", nil)
			return
		}

		started := time.Now()
		answerText, err := deps.Answerer.Answer(ctx, req.Question, contextText)
		if err != nil {
			utils.RespondWithInternalError(c, "answer generation failed", err.Error())
			return
		}
		if deps.Metrics != nil {
			deps.Metrics.RecordAnswer("ask", time.Since(started).Seconds())
		}

		answer := &models.Answer{
			Question:   req.Question,
			Text:       answerText,
			KeyFigures: services.FilterKeyFigures(answerText),
			Model:      deps.Answerer.Model(),
			CreatedAt:  time.Now(),
		}
		s.LastQuestion = req.Question
		s.LastAnswer = answer
		s.LastRanked = ranked
		s.LastContext = contextText

		saveHistory(deps, c, s, "ask", answer)

		c.JSON(http.StatusOK, gin.H{
			"answer":      answer.Text,
			"key_figures": answer.KeyFigures,
			"model":       answer.Model,
			"top_chunks":  ranked,
			"cached":      cached,
		})
	}
}

// ensureEmbeddings loads the session's embedded chunks from cache or
// computes and caches them. Reports whether the cache was hit.
func ensureEmbeddings(deps *Deps, c *gin.Context, s *session.Session) (bool, error) {
	if len(s.EmbeddedChunks) > 0 {
		return true, nil
	}

	ctx := c.Request.Context()
	key := cache.Key(s.Report.SourceID, cache.KeyParams{
		VersionTag: deps.Cfg.CacheVersionTag,
		Model:      deps.Embedder.Model(),
		ChunkSize:  deps.Cfg.MaxChunkSize,
		Overlap:    deps.Cfg.ChunkOverlap,
	})

	if entries, ok, err := deps.Cache.Load(ctx, key); err != nil {
		logger.Warn("cache load failed, recomputing", "error", err)
	} else if ok {
		if deps.Metrics != nil {
			deps.Metrics.RecordCacheLookup(true)
		}
		s.EmbeddedChunks = entries
		return true, nil
	}
	if deps.Metrics != nil {
		deps.Metrics.RecordCacheLookup(false)
	}

	chunks := deps.Chunker.Split(s.Report.Text)
	embedded, err := deps.Embedder.EmbedChunks(ctx, chunks, func(done, total, chars int) {
		logger.Debug("embedding progress", "done", done, "total", total, "chars", chars)
	})
	if err != nil {
		return false, err
	}

	if err := deps.Cache.Save(ctx, key, embedded); err != nil {
		// Cache write failures never fail the request.
		logger.Warn("cache save failed", "error", err)
	}
	s.EmbeddedChunks = embedded
	return false, nil
}

// analyzeReport sends the whole report through the analysis prompt,
// bypassing retrieval.
func analyzeReport(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := getSession(deps, c)
		if s == nil {
			return
		}
		if s.Report == nil {
			utils.RespondWithBadRequest(c, "load a report source first", nil)
			return
		}

		started := time.Now()
		analysis, err := deps.Answerer.FullAnalysis(c.Request.Context(), s.Report.Text)
		if err != nil {
			utils.RespondWithInternalError(c, "report analysis failed", err.Error())
			return
		}
		if deps.Metrics != nil {
			deps.Metrics.RecordAnswer("full", time.Since(started).Seconds())
		}

		answer := &models.Answer{
			Text:       analysis,
			KeyFigures: services.FilterKeyFigures(analysis),
			Model:      deps.Answerer.Model(),
			CreatedAt:  time.Now(),
		}
		s.LastQuestion = ""
		s.LastAnswer = answer
		s.LastRanked = nil
		s.LastContext = s.Report.Text

		saveHistory(deps, c, s, "full", answer)

		c.JSON(http.StatusOK, gin.H{
			"analysis":    answer.Text,
			"key_figures": answer.KeyFigures,
			"model":       answer.Model,
		})
	}
}

// evaluateAnswer scores the session's last exchange.
func evaluateAnswer(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := getSession(deps, c)
		if s == nil {
			return
		}
		if s.LastAnswer == nil || s.LastContext == "" {
			utils.RespondWithBadRequest(c, "nothing to evaluate yet", nil)
			return
		}

		eval, err := deps.Evaluator.Evaluate(c.Request.Context(), s.LastQuestion, s.LastAnswer.Text, s.LastContext)
		if err != nil {
			utils.RespondWithUnavailable(c, "evaluation failed", err.Error())
			return
		}

		// A full analysis has no question, so relevancy to one is
		// meaningless and is left out of the response.
		if s.LastQuestion == "" {
			c.JSON(http.StatusOK, gin.H{
				"faithfulness": eval.Faithfulness,
				"strategy":     eval.Strategy,
			})
			return
		}
		c.JSON(http.StatusOK, eval)
	}
}

func exportAnswerText(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := getSession(deps, c)
		if s == nil {
			return
		}
		if s.LastAnswer == nil {
			utils.RespondWithNotFound(c, "no answer to export yet")
			return
		}
		c.Header("Content-Disposition", `attachment; filename="analys_svar.txt"`)
		c.Data(http.StatusOK, "text/plain; charset=utf-8", services.AnswerText(*s.LastAnswer))
	}
}

func exportAnswerPDF(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := getSession(deps, c)
		if s == nil {
			return
		}
		if s.LastAnswer == nil {
			utils.RespondWithNotFound(c, "no answer to export yet")
			return
		}
		pdfBytes, err := services.AnswerPDF(*s.LastAnswer)
		if err != nil {
			utils.RespondWithInternalError(c, "PDF export failed", err.Error())
			return
		}
		c.Header("Content-Disposition", `attachment; filename="analys_svar.pdf"`)
		c.Data(http.StatusOK, "application/pdf", pdfBytes)
	}
}

func deleteSession(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		deps.Sessions.Delete(c.Param("id"))
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

func listHistory(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.History == nil {
			utils.RespondWithUnavailable(c, "history store not configured", nil)
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		records, err := deps.History.Recent(c.Request.Context(), limit)
		if err != nil {
			utils.RespondWithInternalError(c, "could not read history", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"analyses": records})
	}
}

// saveHistory records the exchange when a history store is configured.
func saveHistory(deps *Deps, c *gin.Context, s *session.Session, kind string, answer *models.Answer) {
	if deps.History == nil {
		return
	}
	record := models.AnalysisRecord{
		SessionID:  s.ID,
		Kind:       kind,
		SourceID:   s.Report.SourceID,
		Question:   answer.Question,
		Answer:     answer.Text,
		KeyFigures: answer.KeyFigures,
		CreatedAt:  answer.CreatedAt,
	}
	if err := deps.History.Save(c.Request.Context(), record); err != nil {
		logger.Warn("could not save analysis history", "error", err)
	}
}
