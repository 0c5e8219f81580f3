package repository

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vaxdrive-console/internal/models"
	"github.com/noah-isme/vaxdrive-console/pkg/directory"
	appErrors "github.com/noah-isme/vaxdrive-console/pkg/errors"
)

type fakeDirectory struct {
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	seen   []string
}

func newFakeDirectory(t *testing.T) (*fakeDirectory, *directory.Client) {
	fake := &fakeDirectory{routes: map[string]http.HandlerFunc{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		fake.mu.Lock()
		fake.seen = append(fake.seen, key)
		h, ok := fake.routes[key]
		fake.mu.Unlock()
		if ok {
			h(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"no route"}`)
	}))
	t.Cleanup(srv.Close)
	return fake, directory.New(directory.Config{BaseURL: srv.URL})
}

func (f *fakeDirectory) on(key string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[key] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func (f *fakeDirectory) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...)
}

func TestAuthRepositoryLogin(t *testing.T) {
	fake, client := newFakeDirectory(t)
	fake.routes["POST /users/login"] = func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "nurse", in["username"])
		_, _ = io.WriteString(w, `{"token":"dir-token","user":{"_id":"u1","username":"nurse"}}`)
	}

	out, err := NewAuthRepository(client).Login(context.Background(), "nurse", "secret")
	require.NoError(t, err)
	assert.Equal(t, "dir-token", out.Token)
	assert.Equal(t, "u1", out.User.ID)

	fake.on("POST /users/login", http.StatusUnauthorized, `{"message":"Invalid credentials"}`)
	_, err = NewAuthRepository(client).Login(context.Background(), "nurse", "bad")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestStudentRepositoryRoundTrip(t *testing.T) {
	fake, client := newFakeDirectory(t)
	fake.routes["GET /students"] = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "c1", r.URL.Query().Get("classId"))
		_, _ = io.WriteString(w, `[{"_id":"s1","StudentID":"STU-1","name":"Ana","dateOfBirth":"2015-01-02","classId":{"_id":"c1","name":"5","section":"A"},"vaccinated":true}]`)
	}
	fake.routes["PUT /students/s1"] = func(w http.ResponseWriter, r *http.Request) {
		var in map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "STU-1", in["StudentID"])
		assert.Equal(t, "c2", in["classId"])
		assert.NotContains(t, in, "localId")
		_, _ = io.WriteString(w, `{"_id":"s1","StudentID":"STU-1","name":"Ana B","classId":"c2"}`)
	}
	fake.on("DELETE /students/s1", http.StatusOK, `{"message":"deleted"}`)
	fake.routes["POST /students/upload"] = func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "roster.csv", header.Filename)
		_, _ = io.WriteString(w, `{"message":"Students uploaded","inserted":2}`)
	}

	repo := NewStudentRepository(client)
	ctx := context.Background()

	students, err := repo.List(ctx, "tok", models.StudentFilter{ClassID: "c1"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "5 - A", students[0].ClassName())
	assert.True(t, students[0].IsVaccinated())
	require.NotNil(t, students[0].DateOfBirth)

	dob, _ := models.ParseTimestamp("2015-01-02")
	updated, err := repo.Update(ctx, "tok", "s1", models.StudentInput{StudentID: "STU-1", Name: "Ana B", DateOfBirth: dob, ClassID: "c2", LocalID: 4})
	require.NoError(t, err)
	assert.Equal(t, "c2", updated.Class.ID)

	require.NoError(t, repo.Delete(ctx, "tok", "s1"))

	result, err := repo.Upload(ctx, "tok", "roster.csv", strings.NewReader("name,age,class\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
}

func TestDriveRepository(t *testing.T) {
	fake, client := newFakeDirectory(t)
	fake.on("GET /drives", http.StatusOK, `[{"_id":"d1","name":"Polio","startDate":"2025-05-10T09:00","endDate":"2025-05-11","status":"upcoming","targetClasses":["c1",{"_id":"c2","name":"6"}]}]`)
	fake.on("POST /drives", http.StatusCreated, `{"_id":"d2","name":"MMR"}`)
	fake.on("PUT /drives/d2", http.StatusOK, `{"_id":"d2","name":"MMR 2"}`)
	fake.on("DELETE /drives/d2", http.StatusNoContent, ``)

	repo := NewDriveRepository(client)
	ctx := context.Background()

	drives, err := repo.List(ctx, "tok")
	require.NoError(t, err)
	require.Len(t, drives, 1)
	assert.Equal(t, time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC), drives[0].StartDate.Time)
	assert.Equal(t, []models.Ref{{ID: "c1"}, {ID: "c2", Name: "6"}}, drives[0].TargetClasses)

	created, err := repo.Create(ctx, "tok", models.DriveInput{Name: "MMR"})
	require.NoError(t, err)
	assert.Equal(t, "d2", created.ID)

	updated, err := repo.Update(ctx, "tok", "d2", models.DriveInput{Name: "MMR 2"})
	require.NoError(t, err)
	assert.Equal(t, "MMR 2", updated.Name)

	require.NoError(t, repo.Delete(ctx, "tok", "d2"))
	assert.Equal(t, []string{"GET /drives", "POST /drives", "PUT /drives/d2", "DELETE /drives/d2"}, fake.calls())
}

func TestReferenceAndRecordRepositories(t *testing.T) {
	fake, client := newFakeDirectory(t)
	fake.on("GET /classes", http.StatusOK, `[{"_id":"c1","name":"5","section":"A"}]`)
	fake.on("GET /vaccines", http.StatusOK, `[{"_id":"v1","name":"Polio"}]`)
	fake.on("GET /records", http.StatusOK, `[{"_id":"r1","studentId":"s1","driveId":{"_id":"d1","name":"Polio"},"vaccinationDate":"2025-05-10","batchId":"batch001"}]`)
	fake.on("POST /records", http.StatusCreated, `{"_id":"r2","studentId":"s2","vaccinationDate":"2025-05-11"}`)
	fake.on("GET /dashboard/summary", http.StatusOK, `{"totalStudents":10,"vaccinatedStudents":4}`)

	ctx := context.Background()
	classes, err := NewClassRepository(client).List(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "A", classes[0].Section)

	vaccines, err := NewVaccineRepository(client).List(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "Polio", vaccines[0].Name)

	records, err := NewRecordRepository(client).List(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "s1", records[0].Student.ID)
	assert.Equal(t, "Polio", records[0].Drive.Name)

	record, err := NewRecordRepository(client).Create(ctx, "tok", models.VaccinationEntry{DriveID: "d1", ClassID: "c1", StudentID: "s2"})
	require.NoError(t, err)
	assert.Equal(t, "r2", record.ID)

	summary, err := NewDashboardRepository(client).Summary(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, 10, summary.TotalStudents)
	assert.Nil(t, summary.VaccinatedPercent)
}
