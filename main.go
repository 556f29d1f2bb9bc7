package main

import (
	"flag"
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Phabs974/ListePCMontage/config"
	"github.com/Phabs974/ListePCMontage/controllers"
	"github.com/Phabs974/ListePCMontage/middleware"
	"github.com/Phabs974/ListePCMontage/models"
	"github.com/Phabs974/ListePCMontage/services"
)

func main() {
	createUsername := flag.String("create-user", "", "create a user account and exit")
	createPassword := flag.String("password", "", "password for -create-user")
	createRole := flag.String("role", "ADMIN", "role for -create-user (ADMIN, VENDOR or BUILDER)")
	flag.Parse()

	log.Println("Starting Liste PC Montage API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := config.ConnectDatabase(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := config.GetDB()
	if err := config.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Maintenance path: create an account directly against the database,
	// without going through the API
	if *createUsername != "" {
		createUser(*createUsername, *createPassword, *createRole)
		return
	}

	if err := config.EnsureDefaultAdmin(db, cfg); err != nil {
		log.Fatalf("Failed to ensure default admin: %v", err)
	}

	if _, err := services.InitArchive(); err != nil {
		log.Fatalf("Failed to initialize invoice archive: %v", err)
	}

	router := setupRouter(cfg)

	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter wires the routes and middleware
func setupRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	if cfg.CORSOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = strings.Split(cfg.CORSOrigins, ",")
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	router.GET("/health", healthCheck)

	auth := router.Group("/auth")
	{
		auth.POST("/login", controllers.Login)
		auth.GET("/me", middleware.RequireAuth(), controllers.Me)
	}

	orders := router.Group("/orders", middleware.RequireAuth())
	{
		orders.GET("", controllers.ListOrders)
		orders.POST("", middleware.RequireRole(models.RoleAdmin, models.RoleVendor), controllers.CreateOrder)
		orders.PATCH("/:id", controllers.UpdateOrder)
		orders.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), controllers.DeleteOrder)
	}

	router.POST("/import/invoice",
		middleware.RequireAuth(),
		middleware.RequireRole(models.RoleAdmin, models.RoleVendor),
		controllers.ImportInvoice,
	)

	users := router.Group("/users", middleware.RequireAuth(), middleware.RequireRole(models.RoleAdmin))
	{
		users.GET("", controllers.ListUsers)
		users.POST("", controllers.CreateUser)
		users.PATCH("/:id", controllers.UpdateUser)
		users.DELETE("/:id", controllers.DeleteUser)
	}

	return router
}

// createUser handles the -create-user maintenance flag
func createUser(username, password, roleName string) {
	if password == "" {
		log.Fatal("-password is required with -create-user")
	}
	role := models.Role(roleName)
	if !role.Valid() {
		log.Fatalf("Invalid role %q", roleName)
	}

	db := config.GetDB()
	var existing models.User
	if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
		log.Fatalf("User %q already exists", username)
	}

	user := models.User{Username: username, Role: role}
	if err := user.SetPassword(password); err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}
	log.Printf("Created %s user %q", role, username)
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
