package domain

// Store collection names shared by the engine and the read modules.
const (
	CollectionPlans          = "plans"
	CollectionClients        = "clients"
	CollectionProducts       = "products"
	CollectionTasks          = "tasks"
	CollectionUsers          = "users"
	CollectionManufacturers  = "manufacturers"
	CollectionProcedures     = "procedures"
	CollectionDepartments    = "departments"
	CollectionSpecialties    = "specialties"
	CollectionMarketingTasks = "marketing_tasks"
)
