package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"CoursePortal/internal/web"
	"CoursePortal/pkg/kit"
)

const (
	mutateLimitPerMin = 30
	limitWindow       = 60 * time.Second
)

type Server struct {
	Store  Store
	Log    *zap.Logger
	Render *web.Renderer
	Flash  *web.Flash
	Tracer oteltrace.Tracer
}

// page is the data context handed to every template.
type page struct {
	Title   string
	Flashes []web.Message
	Courses []Course
	Course  *Course
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Store.Ping(ctx); err != nil {
			if s.Log != nil {
				s.Log.Warn("readyz failed", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mutate := kit.NewLimiter(mutateLimitPerMin, limitWindow)

	r.Get("/", s.home)
	r.Get("/catalog", s.listCatalog)
	r.Get("/course/{code}", s.courseDetails)
	r.Get("/add", s.addCourseForm)
	r.With(mutate.Middleware).Post("/add", s.addCourse)
	r.With(mutate.Middleware).Post("/remove/{code}", s.removeCourse)

	return r
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	_, span := s.startSpan(r, "render index")
	defer span.End()

	s.Log.Info("rendering index page")
	s.renderPage(w, r, "index", page{})
}

func (s *Server) listCatalog(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "render course catalog")
	defer span.End()

	courses, err := s.Store.List(ctx)
	if err != nil {
		s.serverError(w, r, span, err, "load catalog failed")
		return
	}

	s.Log.Info("rendering course catalog", zap.Int("courses", len(courses)))
	s.renderPage(w, r, "catalog", page{Title: "Course Catalog", Courses: courses})
}

func (s *Server) courseDetails(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	ctx, span := s.startSpan(r, "view course details")
	span.SetAttributes(attribute.String("course.code", code))
	defer span.End()

	course, ok, err := s.Store.Find(ctx, code)
	if err != nil {
		s.serverError(w, r, span, err, "find course failed")
		return
	}
	if !ok {
		s.Log.Error("course not found", zap.String("code", code))
		span.SetStatus(codes.Error, "course not found")
		s.Flash.Add(w, r, web.LevelError, fmt.Sprintf("No course found with code '%s'.", code))
		http.Redirect(w, r, "/catalog", http.StatusFound)
		return
	}

	s.Log.Info("displaying course details",
		zap.String("code", code), zap.String("name", course.Name))
	s.renderPage(w, r, "course", page{Title: course.Name, Course: &course})
}

func (s *Server) addCourseForm(w http.ResponseWriter, r *http.Request) {
	_, span := s.startSpan(r, "render add course form")
	defer span.End()

	s.Log.Info("rendering add course page")
	s.renderPage(w, r, "add", page{Title: "Add Course"})
}

func (s *Server) addCourse(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "add course")
	defer span.End()

	if err := r.ParseForm(); err != nil {
		s.serverError(w, r, span, err, "parse form failed")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	code := strings.TrimSpace(r.FormValue("code"))
	instructor := strings.TrimSpace(r.FormValue("instructor"))
	span.SetAttributes(attribute.String("course.code", code))

	var missing []string
	if name == "" {
		missing = append(missing, "Course Name")
	}
	if code == "" {
		missing = append(missing, "Course Code")
	}
	if instructor == "" {
		missing = append(missing, "Instructor")
	}

	if len(missing) > 0 {
		fields := strings.Join(missing, ", ")
		s.Log.Error("missing required fields", zap.String("fields", fields))
		span.SetStatus(codes.Error, "missing required fields: "+fields)
		s.Flash.Add(w, r, web.LevelError,
			"Error: The following fields are required: "+fields)
		http.Redirect(w, r, "/add", http.StatusSeeOther)
		return
	}

	course := Course{
		Code:          code,
		Name:          name,
		Instructor:    instructor,
		Semester:      formOrDefault(r, "semester", ""),
		Schedule:      formOrDefault(r, "schedule", ""),
		Classroom:     formOrDefault(r, "classroom", ""),
		Prerequisites: formOrDefault(r, "prerequisites", "None"),
		Grading:       formOrDefault(r, "grading", "Not specified"),
		Description:   formOrDefault(r, "description", "No description provided"),
	}

	if err := s.Store.Append(ctx, course); err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			s.Log.Error("duplicate course code", zap.String("code", code))
			span.SetStatus(codes.Error, "duplicate course code")
			s.Flash.Add(w, r, web.LevelError,
				fmt.Sprintf("A course with code '%s' already exists.", code))
			http.Redirect(w, r, "/add", http.StatusSeeOther)
			return
		}
		s.serverError(w, r, span, err, "append course failed")
		return
	}

	s.Log.Info("added new course", zap.String("code", code), zap.String("name", name))
	s.Flash.Add(w, r, web.LevelSuccess,
		fmt.Sprintf("Course '%s' added successfully!", name))
	http.Redirect(w, r, "/catalog", http.StatusSeeOther)
}

func (s *Server) removeCourse(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	ctx, span := s.startSpan(r, "remove course")
	span.SetAttributes(attribute.String("course.code", code))
	defer span.End()

	course, ok, err := s.Store.Find(ctx, code)
	if err != nil {
		s.serverError(w, r, span, err, "find course failed")
		return
	}
	if !ok {
		s.Log.Error("course not found for removal", zap.String("code", code))
		span.SetStatus(codes.Error, "course not found")
		s.Flash.Add(w, r, web.LevelError, fmt.Sprintf("No course found with code '%s'.", code))
		http.Redirect(w, r, "/catalog", http.StatusSeeOther)
		return
	}

	if _, err := s.Store.Remove(ctx, code); err != nil {
		s.serverError(w, r, span, err, "remove course failed")
		return
	}

	s.Log.Info("removed course", zap.String("code", code), zap.String("name", course.Name))
	s.Flash.Add(w, r, web.LevelSuccess,
		fmt.Sprintf("Course '%s' removed successfully!", course.Name))
	http.Redirect(w, r, "/catalog", http.StatusSeeOther)
}

// renderPage drains the flash inbox into the page before rendering so
// the Set-Cookie header goes out ahead of the body.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, name string, p page) {
	p.Flashes = s.Flash.Pop(w, r)
	if err := s.Render.Render(w, http.StatusOK, name, p); err != nil {
		s.Log.Error("render failed", zap.String("page", name), zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, span oteltrace.Span, err error, msg string) {
	s.Log.Error(msg, zap.Error(err))
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)

	if rerr := s.Render.Render(w, http.StatusInternalServerError, "error", page{Title: "Error"}); rerr != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}

func (s *Server) startSpan(r *http.Request, name string) (context.Context, oteltrace.Span) {
	t := s.Tracer
	if t == nil {
		t = otel.Tracer("courseportal")
	}
	return t.Start(r.Context(), name)
}

// formOrDefault falls back to def only when the field was absent from
// the submission entirely. An empty submitted value stays empty.
func formOrDefault(r *http.Request, key, def string) string {
	if vs, ok := r.Form[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return def
}
