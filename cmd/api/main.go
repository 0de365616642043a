package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mihirrannly/HRManagementSystem-sub005/internal/config"
	appHTTP "github.com/mihirrannly/HRManagementSystem-sub005/internal/handler/http"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/pkg/cron"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/pkg/database"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/pkg/jwt"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/pkg/presence"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/repository/postgresql"
	attendanceService "github.com/mihirrannly/HRManagementSystem-sub005/internal/service/attendance"
	reportService "github.com/mihirrannly/HRManagementSystem-sub005/internal/service/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	attendanceRepo := postgresql.NewAttendanceRepository(db)
	workerRepo := postgresql.NewWorkerRepository(db)
	leaveRepo := postgresql.NewLeaveRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	presenceValidator := presence.NewValidator(cfg.Presence)

	attendanceSvc := attendanceService.NewAttendanceService(
		attendanceRepo,
		workerRepo,
		holidayRepo,
		presenceValidator,
		cfg.Workplace,
	)
	reportSvc := reportService.NewReportService(attendanceRepo, workerRepo, cfg.Workplace)

	scheduler := cron.NewScheduler()
	reconciliationJobs := cron.NewReconciliationJobs(
		attendanceRepo,
		workerRepo,
		leaveRepo,
		holidayRepo,
		cfg.Workplace,
		cfg.Reconcile,
	)
	reconciliationJobs.RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	reportHandler := appHTTP.NewReportHandler(reportSvc)

	router := appHTTP.NewRouter(jwtService, attendanceHandler, reportHandler)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	server := &http.Server{Addr: port, Handler: router}

	go func() {
		fmt.Printf("Server running at http://localhost%s\n", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Println("Server error:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("Shutting down...")
	_ = server.Close()
}
