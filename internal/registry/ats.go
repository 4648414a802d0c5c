package registry

import "github.com/talentops/recruiter-agent/internal/domain"

// Role, status and recommendation vocabularies shared by several
// definitions.
var (
	userRoles       = []string{"ADMIN", "RECRUITER", "HIRING_MANAGER", "INTERVIEWER"}
	jobStatuses     = []string{"DRAFT", "OPEN", "PAUSED", "CLOSED", "FILLED"}
	candidateStates = []string{"NEW", "IN_PROGRESS", "ON_HOLD", "REJECTED", "OFFERED", "ACCEPTED", "DECLINED", "WITHDRAWN"}
	assessmentTypes = []string{"TECHNICAL", "BEHAVIORAL", "CULTURAL", "CASE_STUDY", "ASSIGNMENT"}
	recommendations = []string{"STRONG_YES", "YES", "NEUTRAL", "NO", "STRONG_NO"}
)

// NewATS builds the registry of ATS operations the agent is prompted
// with. The order here is the order the conversational model sees.
func NewATS() (*Registry, error) {
	return New(atsDefinitions()...)
}

func atsDefinitions() []domain.FunctionDefinition {
	return []domain.FunctionDefinition{
		// User operations
		{
			Name:        "getUser",
			Description: "Get user details by ID",
			Parameters: map[string]domain.ParamSpec{
				"id": {Type: domain.TypeString, Description: "User ID", Required: true},
			},
			Returns: map[string]domain.FieldSpec{
				"id": {Type: domain.TypeString}, "name": {Type: domain.TypeString},
				"email": {Type: domain.TypeString}, "role": {Type: domain.TypeString},
			},
			GraphQL: `query GetUser($id: uuid!) { User_by_pk(id: $id) { id name email role } }`,
		},
		{
			Name:        "getUsers",
			Description: "Get users by role",
			Parameters: map[string]domain.ParamSpec{
				"role": {Type: domain.TypeString, Description: "User role filter", Enum: userRoles},
			},
			Returns: map[string]domain.FieldSpec{
				"users": {Type: domain.TypeArray, Items: domain.TypeObject},
			},
			GraphQL: `query GetUsers($role: String) { User(where: {role: {_eq: $role}}) { id name email role } }`,
		},
		{
			Name:        "createUser",
			Description: "Create a new user",
			Parameters: map[string]domain.ParamSpec{
				"name":  {Type: domain.TypeString, Description: "User's full name", Required: true},
				"email": {Type: domain.TypeString, Description: "User's email", Required: true},
				"role":  {Type: domain.TypeString, Description: "User role", Required: true, Enum: userRoles},
			},
			Returns: map[string]domain.FieldSpec{
				"id": {Type: domain.TypeString}, "name": {Type: domain.TypeString},
				"email": {Type: domain.TypeString}, "role": {Type: domain.TypeString},
			},
			GraphQL: `mutation CreateUser($object: User_insert_input!) { insert_User_one(object: $object) { id name email role } }`,
		},

		// Team operations
		{
			Name:        "getTeam",
			Description: "Get team details by ID",
			Parameters: map[string]domain.ParamSpec{
				"id": {Type: domain.TypeString, Description: "Team ID", Required: true},
			},
		},
		{
			Name:        "getTeams",
			Description: "Get all teams",
			Parameters:  map[string]domain.ParamSpec{},
			Returns: map[string]domain.FieldSpec{
				"teams": {Type: domain.TypeArray, Items: domain.TypeObject},
			},
		},
		{
			Name:        "createTeam",
			Description: "Create a new team",
			Parameters: map[string]domain.ParamSpec{
				"name":        {Type: domain.TypeString, Description: "Team name", Required: true},
				"description": {Type: domain.TypeString, Description: "Team description"},
			},
		},
		{
			Name:        "addUserToTeam",
			Description: "Add a user to a team",
			Parameters: map[string]domain.ParamSpec{
				"userId": {Type: domain.TypeString, Description: "User ID", Required: true},
				"teamId": {Type: domain.TypeString, Description: "Team ID", Required: true},
			},
		},

		// Job operations
		{
			Name:        "getJob",
			Description: "Get job details by ID",
			Parameters: map[string]domain.ParamSpec{
				"id": {Type: domain.TypeString, Description: "Job ID", Required: true},
			},
			Returns: map[string]domain.FieldSpec{
				"id": {Type: domain.TypeString}, "title": {Type: domain.TypeString},
				"description": {Type: domain.TypeString}, "status": {Type: domain.TypeString},
				"location": {Type: domain.TypeString},
			},
			GraphQL: `query GetJob($id: uuid!) { Job_by_pk(id: $id) { id title description status location } }`,
		},
		{
			Name:        "getJobs",
			Description: "Get jobs filtered by status",
			Parameters: map[string]domain.ParamSpec{
				"status": {Type: domain.TypeString, Description: "Job status filter", Enum: jobStatuses},
			},
			Returns: map[string]domain.FieldSpec{
				"jobs": {Type: domain.TypeArray, Items: domain.TypeObject},
			},
			GraphQL: `query GetJobs($status: String) { Job(where: {status: {_eq: $status}}, order_by: {updated_at: desc}) { id title status location } }`,
		},
		{
			Name:        "createJob",
			Description: "Create a new job",
			Parameters: map[string]domain.ParamSpec{
				"title":           {Type: domain.TypeString, Description: "Job title", Required: true},
				"description":     {Type: domain.TypeString, Description: "Job description", Required: true},
				"hiringManagerId": {Type: domain.TypeString, Description: "Hiring manager user ID", Required: true},
				"location":        {Type: domain.TypeString, Description: "Job location"},
				"salaryMin":       {Type: domain.TypeNumber, Description: "Minimum salary"},
				"salaryMax":       {Type: domain.TypeNumber, Description: "Maximum salary"},
				"salaryCurrency":  {Type: domain.TypeString, Description: "Salary currency"},
				"requirements":    {Type: domain.TypeArray, Description: "Job requirements", Items: domain.TypeString},
			},
			Returns: map[string]domain.FieldSpec{
				"id": {Type: domain.TypeString}, "title": {Type: domain.TypeString},
				"status": {Type: domain.TypeString},
			},
			GraphQL: `mutation CreateJob($object: Job_insert_input!) { insert_Job_one(object: $object) { id title status } }`,
		},
		{
			Name:        "assignRecruiterToJob",
			Description: "Assign a recruiter to a job",
			Parameters: map[string]domain.ParamSpec{
				"jobId":       {Type: domain.TypeString, Description: "Job ID", Required: true},
				"recruiterId": {Type: domain.TypeString, Description: "Recruiter user ID", Required: true},
			},
		},

		// Pipeline and stage operations
		{
			Name:        "getPipeline",
			Description: "Get pipeline details by ID",
			Parameters: map[string]domain.ParamSpec{
				"id": {Type: domain.TypeString, Description: "Pipeline ID", Required: true},
			},
			GraphQL: `query GetPipeline($id: uuid!) { Pipeline_by_pk(id: $id) { id name updated_at } }`,
		},
		{
			Name:        "createPipeline",
			Description: "Create a new pipeline for a job",
			Parameters: map[string]domain.ParamSpec{
				"name":  {Type: domain.TypeString, Description: "Pipeline name", Required: true},
				"jobId": {Type: domain.TypeString, Description: "Job ID", Required: true},
			},
			GraphQL: `mutation CreateCustomPipeline($object: Pipeline_insert_input!) { insert_Pipeline_one(object: $object) { id } }`,
		},
		{
			Name:        "createStage",
			Description: "Create a new stage in a pipeline",
			Parameters: map[string]domain.ParamSpec{
				"name":       {Type: domain.TypeString, Description: "Stage name", Required: true},
				"pipelineId": {Type: domain.TypeString, Description: "Pipeline ID", Required: true},
				"order":      {Type: domain.TypeInteger, Description: "Stage order in the pipeline", Required: true},
			},
		},

		// Candidate operations
		{
			Name:        "getCandidate",
			Description: "Get candidate details by ID",
			Parameters: map[string]domain.ParamSpec{
				"id": {Type: domain.TypeString, Description: "Candidate ID", Required: true},
			},
			Returns: map[string]domain.FieldSpec{
				"id": {Type: domain.TypeString}, "firstName": {Type: domain.TypeString},
				"lastName": {Type: domain.TypeString}, "email": {Type: domain.TypeString},
				"status": {Type: domain.TypeString},
			},
			GraphQL: `query GetCandidate($id: uuid!) { Candidate_by_pk(id: $id) { id name email status resume_url total_score } }`,
		},
		{
			Name:        "getCandidates",
			Description: "Get candidates filtered by job, stage, or status",
			Parameters: map[string]domain.ParamSpec{
				"jobId":   {Type: domain.TypeString, Description: "Job ID filter"},
				"stageId": {Type: domain.TypeString, Description: "Stage ID filter"},
				"status":  {Type: domain.TypeString, Description: "Candidate status filter", Enum: candidateStates},
			},
			Returns: map[string]domain.FieldSpec{
				"candidates": {Type: domain.TypeArray, Items: domain.TypeObject},
			},
			GraphQL: `query GetCandidates($jobId: uuid, $stageId: uuid, $status: String) { Candidate(where: {job_id: {_eq: $jobId}}) { id name email status total_score } }`,
		},
		{
			Name:        "createCandidate",
			Description: "Create a new candidate for a job",
			Parameters: map[string]domain.ParamSpec{
				"firstName": {Type: domain.TypeString, Description: "Candidate's first name", Required: true},
				"lastName":  {Type: domain.TypeString, Description: "Candidate's last name", Required: true},
				"email":     {Type: domain.TypeString, Description: "Candidate's email", Required: true},
				"phone":     {Type: domain.TypeString, Description: "Candidate's phone number"},
				"resume":    {Type: domain.TypeString, Description: "URL to candidate's resume"},
				"source":    {Type: domain.TypeString, Description: "Where the candidate was sourced from"},
				"jobId":     {Type: domain.TypeString, Description: "Job ID", Required: true},
			},
			Returns: map[string]domain.FieldSpec{
				"id": {Type: domain.TypeString}, "firstName": {Type: domain.TypeString},
				"lastName": {Type: domain.TypeString}, "email": {Type: domain.TypeString},
				"status": {Type: domain.TypeString},
			},
			GraphQL: `mutation CreateCandidate($object: Candidate_insert_input!) { insert_Candidate_one(object: $object) { id name email status } }`,
		},
		{
			Name:        "moveCandidate",
			Description: "Move a candidate to a different stage in the pipeline",
			Parameters: map[string]domain.ParamSpec{
				"candidateId": {Type: domain.TypeString, Description: "Candidate ID", Required: true},
				"stageId":     {Type: domain.TypeString, Description: "Stage ID to move candidate to", Required: true},
			},
		},
		{
			Name:        "updateCandidateStatus",
			Description: "Update a candidate's status",
			Parameters: map[string]domain.ParamSpec{
				"id":     {Type: domain.TypeString, Description: "Candidate ID", Required: true},
				"status": {Type: domain.TypeString, Description: "New candidate status", Required: true, Enum: candidateStates},
			},
			GraphQL: `mutation UpdateCandidateStatus($id: uuid!, $status: String!) { update_Candidate_by_pk(pk_columns: {id: $id}, _set: {status: $status}) { id status } }`,
		},
		{
			Name:        "searchCandidates",
			Description: "Search for candidates with structured criteria",
			Parameters: map[string]domain.ParamSpec{
				"skills":               {Type: domain.TypeArray, Description: "List of skills to search for", Items: domain.TypeString},
				"experienceYearsMin":   {Type: domain.TypeInteger, Description: "Minimum years of experience"},
				"experienceYearsMax":   {Type: domain.TypeInteger, Description: "Maximum years of experience"},
				"locations":            {Type: domain.TypeArray, Description: "List of locations to search for", Items: domain.TypeString},
				"education":            {Type: domain.TypeArray, Description: "List of education institutions to search for", Items: domain.TypeString},
				"educationLevel":       {Type: domain.TypeArray, Description: "List of education levels to search for (e.g., Bachelor's, Master's, PhD)", Items: domain.TypeString},
				"availabilityDate":     {Type: domain.TypeString, Description: "Date when candidate is available to start"},
				"salaryMin":            {Type: domain.TypeNumber, Description: "Minimum salary expectation"},
				"salaryMax":            {Type: domain.TypeNumber, Description: "Maximum salary expectation"},
				"salaryCurrency":       {Type: domain.TypeString, Description: "Currency for salary range"},
				"jobTitles":            {Type: domain.TypeArray, Description: "List of job titles to search for", Items: domain.TypeString},
				"industries":           {Type: domain.TypeArray, Description: "List of industries to search for", Items: domain.TypeString},
				"keywordSearch":        {Type: domain.TypeString, Description: "Keyword(s) to search across all text fields"},
				"tags":                 {Type: domain.TypeArray, Description: "List of tags to search for", Items: domain.TypeString},
				"appliedDateStart":     {Type: domain.TypeString, Description: "Start date for when candidate applied"},
				"appliedDateEnd":       {Type: domain.TypeString, Description: "End date for when candidate applied"},
				"lastContactDateStart": {Type: domain.TypeString, Description: "Start date for when candidate was last contacted"},
				"lastContactDateEnd":   {Type: domain.TypeString, Description: "End date for when candidate was last contacted"},
			},
			Returns: map[string]domain.FieldSpec{
				"candidates": {Type: domain.TypeArray, Items: domain.TypeObject},
			},
		},

		// Note operations
		{
			Name:        "createNote",
			Description: "Create a note for a candidate",
			Parameters: map[string]domain.ParamSpec{
				"content":     {Type: domain.TypeString, Description: "Note content", Required: true},
				"candidateId": {Type: domain.TypeString, Description: "Candidate ID", Required: true},
				"authorId":    {Type: domain.TypeString, Description: "Author user ID", Required: true},
			},
		},

		// Assessment operations
		{
			Name:        "getAssessment",
			Description: "Get assessment details by ID",
			Parameters: map[string]domain.ParamSpec{
				"id": {Type: domain.TypeString, Description: "Assessment ID", Required: true},
			},
		},
		{
			Name:        "createAssessment",
			Description: "Create a new assessment for a stage",
			Parameters: map[string]domain.ParamSpec{
				"name":        {Type: domain.TypeString, Description: "Assessment name", Required: true},
				"description": {Type: domain.TypeString, Description: "Assessment description", Required: true},
				"type":        {Type: domain.TypeString, Description: "Assessment type", Required: true, Enum: assessmentTypes},
				"stageId":     {Type: domain.TypeString, Description: "Stage ID", Required: true},
			},
		},
		{
			Name:        "getAssessmentGrade",
			Description: "Get assessment grade details by ID",
			Parameters: map[string]domain.ParamSpec{
				"id": {Type: domain.TypeString, Description: "Assessment grade ID", Required: true},
			},
		},
		{
			Name:        "getCandidateAssessments",
			Description: "Get all assessment grades for a candidate",
			Parameters: map[string]domain.ParamSpec{
				"candidateId": {Type: domain.TypeString, Description: "Candidate ID", Required: true},
			},
			Returns: map[string]domain.FieldSpec{
				"grades": {Type: domain.TypeArray, Items: domain.TypeObject},
			},
		},
		{
			Name:        "createAssessmentGrade",
			Description: "Create an assessment grade for a candidate",
			Parameters: map[string]domain.ParamSpec{
				"assessmentId":   {Type: domain.TypeString, Description: "Assessment ID", Required: true},
				"candidateId":    {Type: domain.TypeString, Description: "Candidate ID", Required: true},
				"interviewerId":  {Type: domain.TypeString, Description: "Interviewer user ID", Required: true},
				"score":          {Type: domain.TypeNumber, Description: "Assessment score"},
				"feedback":       {Type: domain.TypeString, Description: "Assessment feedback", Required: true},
				"strengths":      {Type: domain.TypeArray, Description: "Candidate strengths identified", Items: domain.TypeString},
				"weaknesses":     {Type: domain.TypeArray, Description: "Candidate weaknesses identified", Items: domain.TypeString},
				"recommendation": {Type: domain.TypeString, Description: "Overall recommendation", Required: true, Enum: recommendations},
			},
		},
	}
}
