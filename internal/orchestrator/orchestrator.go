package orchestrator

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "strings"
    "time"

    "github.com/rs/zerolog/log"
    "golang.org/x/sync/errgroup"

    "github.com/local/alternator/internal/dispatcher"
    "github.com/local/alternator/internal/fetch"
    "github.com/local/alternator/internal/filetype"
    "github.com/local/alternator/internal/interleave"
    "github.com/local/alternator/internal/metrics"
    "github.com/local/alternator/internal/pdf"
    "github.com/local/alternator/internal/preview"
    "github.com/local/alternator/internal/session"
    "github.com/local/alternator/internal/statuscheck"
    "github.com/local/alternator/internal/store"
    "github.com/local/alternator/internal/web"
)

const sessionCookie = "sid"

// Dependencies wires the API layer.
type Dependencies struct {
    Sessions *session.Manager
    Status   store.StatusStore
    Pool     *dispatcher.Pool
    Fetcher  *fetch.Fetcher
    Preview  *preview.Renderer
    Checker  *statuscheck.Checker
    MaxUpload int64
}

type Orchestrator struct {
    deps Dependencies
}

func New(deps Dependencies) *Orchestrator {
    if deps.MaxUpload <= 0 { deps.MaxUpload = 64 << 20 }
    return &Orchestrator{deps: deps}
}

func (o *Orchestrator) RegisterRoutes(mux *http.ServeMux) {
    mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); _, _ = w.Write([]byte("ok")) })
    mux.HandleFunc("/api/source/", o.handleSource)
    mux.HandleFunc("/api/source_ref", o.handleSourceRef)
    mux.HandleFunc("/api/merge", o.handleMerge)
    mux.HandleFunc("/api/status", o.handleStatus)
    mux.HandleFunc("/api/download", o.handleDownload)
    mux.HandleFunc("/api/preview/", o.handlePreview)
    mux.HandleFunc("/api/system", o.handleSystem)
}

// session resolves (or creates) the caller's session from the sid cookie.
func (o *Orchestrator) session(w http.ResponseWriter, r *http.Request) *session.Session {
    var id string
    if c, err := r.Cookie(sessionCookie); err == nil {
        id = c.Value
    }
    sess := o.deps.Sessions.Get(id)
    if sess.ID != id {
        http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: sess.ID, Path: "/", HttpOnly: true})
    }
    return sess
}

type sourceMeta struct {
    Slot      string `json:"slot"`
    Name      string `json:"name"`
    Size      int64  `json:"size"`
    SizeHuman string `json:"size_human"`
    Pages     int    `json:"pages"`
}

func metaFor(slot session.Slot, doc *pdf.Document) *sourceMeta {
    if doc == nil {
        return nil
    }
    return &sourceMeta{
        Slot:      string(slot),
        Name:      doc.Name(),
        Size:      doc.Size(),
        SizeHuman: web.FormatBytes(doc.Size()),
        Pages:     doc.PageCount(),
    }
}

// handleSource loads (POST) or clears (DELETE) one slot. A failed load resets
// only the affected slot; the other slot stays as it was.
func (o *Orchestrator) handleSource(w http.ResponseWriter, r *http.Request) {
    slot, err := session.ParseSlot(strings.TrimPrefix(r.URL.Path, "/api/source/"))
    if err != nil {
        writeError(w, http.StatusNotFound, err.Error())
        return
    }
    sess := o.session(w, r)

    switch r.Method {
    case http.MethodDelete:
        sess.ClearSource(slot)
        w.WriteHeader(http.StatusNoContent)
        return
    case http.MethodPost:
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }

    if err := r.ParseMultipartForm(o.deps.MaxUpload); err != nil {
        writeError(w, http.StatusBadRequest, "invalid multipart form")
        return
    }
    file, hdr, err := r.FormFile("file")
    if err != nil {
        writeError(w, http.StatusBadRequest, "missing file")
        return
    }
    defer file.Close()

    raw, err := io.ReadAll(io.LimitReader(file, o.deps.MaxUpload+1))
    if err != nil {
        o.failSlot(sess, slot, w, fmt.Errorf("read upload: %w", err))
        return
    }
    if int64(len(raw)) > o.deps.MaxUpload {
        o.failSlot(sess, slot, w, fmt.Errorf("upload exceeds %d bytes", o.deps.MaxUpload))
        return
    }

    doc, err := o.loadSource(raw, hdr.Filename)
    if err != nil {
        o.failSlot(sess, slot, w, err)
        return
    }

    sess.SetSource(slot, doc)
    metrics.IncLoad(string(slot), "success")
    metrics.ObserveSource(doc.Size())
    log.Info().Str("session", sess.ID).Str("slot", string(slot)).Str("name", doc.Name()).Int("pages", doc.PageCount()).Msg("source loaded")

    writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "source": metaFor(slot, doc)})
}

// loadSource gates content to PDF and parses it.
func (o *Orchestrator) loadSource(raw []byte, name string) (*pdf.Document, error) {
    if err := filetype.RequirePDF(raw); err != nil {
        return nil, err
    }
    return pdf.Load(raw, name)
}

// failSlot applies the load-failure policy: the slot empties, the artifact is
// already gone (ClearSource releases it), and the error is slot-attributed.
func (o *Orchestrator) failSlot(sess *session.Session, slot session.Slot, w http.ResponseWriter, err error) {
    sess.ClearSource(slot)
    metrics.IncLoad(string(slot), "error")
    log.Warn().Err(err).Str("session", sess.ID).Str("slot", string(slot)).Msg("source load failed")
    writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
        "status": "error",
        "slot":   string(slot),
        "error":  err.Error(),
    })
}

type sourceRefReq struct {
    ARef     string `json:"a_ref"`
    BRef     string `json:"b_ref"`
    Password string `json:"password"`
}

type slotOutcome struct {
    Loaded bool        `json:"loaded"`
    Error  string      `json:"error,omitempty"`
    Source *sourceMeta `json:"source,omitempty"`
}

// handleSourceRef loads one or both slots from remote references. The two
// fetches run concurrently and fail independently: one slot's error never
// blocks or invalidates the other's success.
func (o *Orchestrator) handleSourceRef(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    defer r.Body.Close()
    var req sourceRefReq
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeError(w, http.StatusBadRequest, "invalid json")
        return
    }
    if req.ARef == "" && req.BRef == "" {
        writeError(w, http.StatusBadRequest, "missing a_ref/b_ref")
        return
    }
    sess := o.session(w, r)

    refs := map[session.Slot]string{}
    if req.ARef != "" { refs[session.SlotA] = req.ARef }
    if req.BRef != "" { refs[session.SlotB] = req.BRef }

    outcomes := map[session.Slot]*slotOutcome{}
    var g errgroup.Group
    for slot, ref := range refs {
        out := &slotOutcome{}
        outcomes[slot] = out
        g.Go(func() error {
            // errors stay per-slot; never propagated through the group
            name, raw, err := o.deps.Fetcher.Fetch(r.Context(), ref, req.Password)
            if err == nil {
                var doc *pdf.Document
                doc, err = o.loadSource(raw, name)
                if err == nil {
                    sess.SetSource(slot, doc)
                    metrics.IncLoad(string(slot), "success")
                    metrics.ObserveSource(doc.Size())
                    out.Loaded = true
                    out.Source = metaFor(slot, doc)
                    return nil
                }
            }
            sess.ClearSource(slot)
            metrics.IncLoad(string(slot), "error")
            log.Warn().Err(err).Str("session", sess.ID).Str("slot", string(slot)).Str("ref", ref).Msg("ref load failed")
            out.Error = err.Error()
            return nil
        })
    }
    _ = g.Wait()

    resp := map[string]any{}
    for slot, out := range outcomes {
        resp[string(slot)] = out
    }
    writeJSON(w, http.StatusOK, resp)
}

// handleMerge triggers the interleave merge. Not-ready and mid-flight
// re-triggers are rejected, never queued.
func (o *Orchestrator) handleMerge(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    sess := o.session(w, r)

    if !sess.Ready() {
        metrics.IncMerge("rejected")
        writeError(w, http.StatusConflict, "both sources must be loaded")
        return
    }
    if !sess.TryBeginMerge() {
        metrics.IncMerge("rejected")
        writeError(w, http.StatusConflict, "merge already running")
        return
    }

    // the pair is captured now; swapping a slot mid-flight affects the next
    // merge, not this one
    docA, docB := sess.Sources()
    if docA == nil || docB == nil {
        sess.EndMerge()
        metrics.IncMerge("rejected")
        writeError(w, http.StatusConflict, "both sources must be loaded")
        return
    }

    start := time.Now()
    _ = o.deps.Status.Set(r.Context(), sess.ID, store.Status{
        State:   store.StateMerging,
        Message: "merge running",
        Start:   &start,
        Metadata: map[string]any{
            "pages_a": docA.PageCount(),
            "pages_b": docB.PageCount(),
        },
    })

    submitted := o.deps.Pool.Submit(func() { o.runMerge(sess, docA, docB, start) })
    if !submitted {
        sess.EndMerge()
        metrics.IncMerge("rejected")
        _ = o.deps.Status.Set(r.Context(), sess.ID, store.Status{State: store.StateError, Message: "merge pool saturated"})
        writeError(w, http.StatusServiceUnavailable, "merge pool saturated")
        return
    }

    writeJSON(w, http.StatusAccepted, map[string]any{"status": store.StateMerging})
}

// runMerge executes on the worker pool. It runs to completion; there is no
// cancellation path.
func (o *Orchestrator) runMerge(sess *session.Session, docA, docB *pdf.Document, start time.Time) {
    defer sess.EndMerge()
    metrics.MergeStarted()
    defer metrics.MergeFinished()

    ctx := context.Background()
    art, err := interleave.Merge(docA, docB)
    if err != nil {
        metrics.IncMerge("error")
        log.Error().Err(err).Str("session", sess.ID).Msg("merge failed")
        end := time.Now()
        _ = o.deps.Status.Set(ctx, sess.ID, store.Status{
            State: store.StateError, Message: "merge failed", Start: &start, End: &end,
        })
        return
    }

    stored, err := session.NewArtifact(o.deps.Sessions.SpoolDir(), art)
    if err != nil {
        metrics.IncMerge("error")
        log.Error().Err(err).Str("session", sess.ID).Msg("artifact spool failed")
        end := time.Now()
        _ = o.deps.Status.Set(ctx, sess.ID, store.Status{
            State: store.StateError, Message: "artifact spool failed", Start: &start, End: &end,
        })
        return
    }

    sess.SetArtifact(stored)
    metrics.IncMerge("success")
    end := time.Now()
    _ = o.deps.Status.Set(ctx, sess.ID, store.Status{
        State:   store.StateSuccess,
        Message: "merge complete",
        Start:   &start,
        End:     &end,
        Metadata: map[string]any{
            "name":  art.Name,
            "pages": art.PageCount,
            "bytes": art.Size,
        },
    })
}

type artifactMeta struct {
    Name      string `json:"name"`
    Pages     int    `json:"pages"`
    Size      int64  `json:"size"`
    SizeHuman string `json:"size_human"`
}

// handleStatus returns the full session snapshot the dashboard polls.
func (o *Orchestrator) handleStatus(w http.ResponseWriter, r *http.Request) {
    sess := o.session(w, r)
    docA, docB := sess.Sources()

    resp := map[string]any{
        "session": sess.ID,
        "a":       metaFor(session.SlotA, docA),
        "b":       metaFor(session.SlotB, docB),
        "ready":   docA != nil && docB != nil,
        "merging": sess.Merging(),
    }

    if art := sess.Artifact(); art != nil {
        resp["artifact"] = &artifactMeta{
            Name:      art.Name,
            Pages:     art.PageCount,
            Size:      art.Size,
            SizeHuman: web.FormatBytes(art.Size),
        }
    }

    if st, ok, err := o.deps.Status.Get(r.Context(), sess.ID); err == nil && ok {
        resp["merge"] = st
    }

    writeJSON(w, http.StatusOK, resp)
}

// handleDownload streams the current artifact under its derived name.
func (o *Orchestrator) handleDownload(w http.ResponseWriter, r *http.Request) {
    sess := o.session(w, r)
    art := sess.Artifact()
    if art == nil {
        writeError(w, http.StatusNotFound, "no artifact")
        return
    }
    f, err := art.Open()
    if err != nil {
        writeError(w, http.StatusGone, "artifact released")
        return
    }
    defer f.Close()
    w.Header().Set("Content-Type", "application/pdf")
    w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Name))
    w.Header().Set("Content-Length", fmt.Sprintf("%d", art.Size))
    _, _ = io.Copy(w, f)
}

// handlePreview renders a first-page thumbnail for a loaded slot.
func (o *Orchestrator) handlePreview(w http.ResponseWriter, r *http.Request) {
    slot, err := session.ParseSlot(strings.TrimPrefix(r.URL.Path, "/api/preview/"))
    if err != nil {
        writeError(w, http.StatusNotFound, err.Error())
        return
    }
    sess := o.session(w, r)
    doc := sess.Source(slot)
    if doc == nil {
        writeError(w, http.StatusNotFound, "slot empty")
        return
    }
    img, err := o.deps.Preview.FirstPageJPEG(doc.Bytes())
    if err != nil {
        log.Warn().Err(err).Str("slot", string(slot)).Msg("preview render failed")
        writeError(w, http.StatusInternalServerError, "preview failed")
        return
    }
    w.Header().Set("Content-Type", "image/jpeg")
    w.Header().Set("Cache-Control", "no-store")
    _, _ = w.Write(img)
}

// handleSystem reports dependency health for the dashboard.
func (o *Orchestrator) handleSystem(w http.ResponseWriter, r *http.Request) {
    if o.deps.Checker == nil {
        writeError(w, http.StatusNotFound, "not configured")
        return
    }
    writeJSON(w, http.StatusOK, o.deps.Checker.Summary(r.Context()))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(code)
    _ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
    writeJSON(w, code, map[string]any{"status": "error", "error": msg})
}
