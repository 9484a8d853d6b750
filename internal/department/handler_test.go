package department_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	errors "github.com/frahmantamala/payroll-engine/internal"
	employeeDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/employee"
	"github.com/frahmantamala/payroll-engine/internal/department"
	departmentPostgres "github.com/frahmantamala/payroll-engine/internal/department/postgres"
	"github.com/frahmantamala/payroll-engine/internal/transport"
)

var _ = Describe("Department Handler Integration", func() {
	var (
		db      *gorm.DB
		service *department.Service
		handler *department.Handler
		router  chi.Router
		actor   *errors.Actor
	)

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req = req.WithContext(errors.ContextWithActor(req.Context(), actor))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&employeeDatamodel.Department{})).To(Succeed())

		repo := departmentPostgres.NewDepartmentRepository(db)
		service = department.NewService(repo, slogger)
		handler = department.NewHandler(&transport.BaseHandler{Logger: slogger}, service)
		actor = &errors.Actor{UserID: 1, CompanyID: 10, Role: errors.RoleAdmin}

		router = chi.NewRouter()
		router.Get("/departments", handler.GetDepartments)
		router.Post("/departments", handler.CreateDepartment)
		router.Delete("/departments/{departmentID}", handler.DeactivateDepartment)

		ctx := context.Background()
		_, err = service.Create(ctx, 10, department.CreateDepartmentDTO{Name: "Engineering", Code: "eng"})
		Expect(err).NotTo(HaveOccurred())
		_, err = service.Create(ctx, 10, department.CreateDepartmentDTO{Name: "Finance", Code: "FIN"})
		Expect(err).NotTo(HaveOccurred())
		_, err = service.Create(ctx, 20, department.CreateDepartmentDTO{Name: "Elsewhere", Code: "ENG"})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	It("should list only the caller's departments", func() {
		w := do(http.MethodGet, "/departments", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

		var response department.DepartmentsResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		codes := make([]string, len(response.Departments))
		for i, d := range response.Departments {
			codes[i] = d.Code
		}
		Expect(codes).To(ConsistOf("ENG", "FIN"))
	})

	It("should reject a duplicate code regardless of case", func() {
		w := do(http.MethodPost, "/departments", department.CreateDepartmentDTO{Name: "Eng 2", Code: "Eng"})
		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("should reject a department without a code", func() {
		w := do(http.MethodPost, "/departments", department.CreateDepartmentDTO{Name: "Ops"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should soft delete and keep the record listable by status", func() {
		list, err := service.List(context.Background(), 10, employeeDatamodel.DepartmentStatusActive)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(2))

		var target department.DepartmentResponse
		for _, d := range list {
			if d.Code == "FIN" {
				target = d
			}
		}

		w := do(http.MethodDelete, "/departments/"+strconv.FormatInt(target.ID, 10), nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodGet, "/departments?status=inactive", nil)
		var response department.DepartmentsResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
		Expect(response.Departments).To(HaveLen(1))
		Expect(response.Departments[0].Code).To(Equal("FIN"))

		exists, err := service.Exists(context.Background(), 10, target.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeTrue())
	})

	It("should return 404 when deactivating another company's department", func() {
		list, err := service.List(context.Background(), 20, "")
		Expect(err).NotTo(HaveOccurred())

		w := do(http.MethodDelete, "/departments/"+strconv.FormatInt(list[0].ID, 10), nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
