package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api/v1")

	// The admission check endpoint carries sibling-service traffic and gets
	// its own, wider policy keyed by the calling service's identity.
	admissionGroup := api.Group("/admission")
	admissionGroup.POST("/check", s.checkAdmission, s.middleware.RateLimit.Limit(s.policies.Admission))

	writeLimit := s.middleware.RateLimit.Limit(s.policies.Write)
	managePlans := s.middleware.Entitlement.RequireFeature("plans", "manage")
	manageSubs := s.middleware.Entitlement.RequireFeature("subscriptions", "manage")

	plans := api.Group("/plans")
	plans.GET("", s.listPlans)
	plans.GET("/:id", s.getPlan)
	plans.POST("", s.createPlan, writeLimit, managePlans)
	plans.PUT("/:id", s.updatePlan, writeLimit, managePlans)
	plans.DELETE("/:id", s.deletePlan, writeLimit, managePlans)

	subscriptions := api.Group("/subscriptions")
	subscriptions.Use(s.middleware.Identity.RequireAuthenticated())
	subscriptions.GET("/me", s.getOwnSubscription)
	subscriptions.POST("", s.subscribe, writeLimit)
	subscriptions.GET("/:user_id", s.getUserSubscription, manageSubs)
	subscriptions.PUT("/:user_id", s.updateSubscription, writeLimit, manageSubs)
	subscriptions.DELETE("/:user_id", s.cancelSubscription, writeLimit, manageSubs)

	usageGroup := api.Group("/usage")
	usageGroup.Use(s.middleware.Identity.RequireAuthenticated())
	usageGroup.GET("/me", s.getOwnUsageSummary)
	usageGroup.GET("/records", s.listUsageRecords, s.middleware.Entitlement.RequireFeature("usage", "read_all"))
	usageGroup.GET("/:user_id", s.getUserUsageSummary, s.middleware.Entitlement.RequireFeature("usage", "read_all"))
	usageGroup.POST("", s.recordUsage, writeLimit, s.middleware.Quota.GateRecord())

	api.GET("/entitlements/me", s.getOwnEntitlements, s.middleware.Identity.RequireAuthenticated())
}
