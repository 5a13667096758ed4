package models

// Language maps a display name to the judge's numeric language identifier.
// Reference data, seeded once and curated manually afterwards.
type Language struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Number         int    `gorm:"not null;uniqueIndex" json:"number"`
	Name           string `gorm:"size:128;not null" json:"name"`
	FileExtension  string `gorm:"size:16;not null" json:"file_extension"`
	PlagiarismName string `gorm:"size:32" json:"plagiarism_name,omitempty"`
}

// SeedLanguages is the initial language catalogue. Number is the judge-side id.
func SeedLanguages() []Language {
	return []Language{
		{Number: 50, Name: "C (GCC 9.2.0)", FileExtension: "c", PlagiarismName: "c"},
		{Number: 54, Name: "C++ (GCC 9.2.0)", FileExtension: "cpp", PlagiarismName: "cc"},
		{Number: 62, Name: "Java (OpenJDK 13.0.1)", FileExtension: "java", PlagiarismName: "java"},
		{Number: 71, Name: "Python (3.8.1)", FileExtension: "py", PlagiarismName: "python"},
		{Number: 63, Name: "JavaScript (Node.js 12.14.0)", FileExtension: "js"},
		{Number: 60, Name: "Go (1.13.5)", FileExtension: "go"},
	}
}
