package optimizer

// The three chain prompts. Placeholders are filled with fmt.Sprintf: the
// job description for the parser, user data plus the parsed job description
// for the analysis and rewrite stages.

const jdParserPrompt = `You're an expert job description analyst. Extract the following from the job description:
- Job Title
- Required Skills
- Preferred Skills
- Tools/Technologies
- Responsibilities
- Keywords for ATS matching
- Industry-specific terminology
- Required qualifications
- Company culture indicators

Job Description: %s`

const resumeParsePrompt = `You're an expert resume parser. Extract structured information from the resume text below.

Rules:
- ONLY use information present in the resume text
- DO NOT fabricate or infer missing details; leave fields empty instead
- Normalize dates to the form they appear in (e.g. "Jan 2022", "2022")
- List each distinct skill once

Resume Text: %s

Return JSON: {
  "name": string,
  "email": string,
  "phone": string,
  "linkedin": string,
  "github": string,
  "education": [
    {
      "institution": string,
      "degree": string,
      "field_of_study": string,
      "start_year": string,
      "end_year": string,
      "gpa": string
    }
  ],
  "experience": [
    {
      "company": string,
      "title": string,
      "location": string,
      "start_date": string,
      "end_date": string,
      "is_current": boolean,
      "description": string
    }
  ],
  "projects": [
    {
      "name": string,
      "description": string,
      "tech_stack": string,
      "url": string
    }
  ],
  "skills": string[],
  "certifications": [
    {
      "name": string,
      "issuer": string,
      "issue_date": string
    }
  ]
}`

const atsPrompt = `You're an expert ATS optimization specialist. Analyze this user's resume data: %s

Against this job description analysis: %s

Perform the following analysis:
1. ATS Score Calculation (0-100):
   - Keyword match percentage
   - Format compliance
   - Content relevance
   - Industry alignment

2. Keyword Analysis:
   - Matched keywords (with context)
   - Missing critical keywords
   - Alternative keyword suggestions

3. Content Optimization:
   - Experience alignment
   - Skills prioritization
   - Project relevance

4. Action Items:
   - Specific improvements needed
   - Format adjustments
   - Content restructuring suggestions

Return JSON: {
  "ats_score": number,
  "matched_keywords": string[],
  "missing_keywords": string[],
  "recommendations": string[],
  "content_analysis": {
    "experience_alignment": number,
    "skills_alignment": number,
    "project_relevance": number
  }
}`

const rewritePrompt = `You're a professional resume optimization expert. Create an ATS-optimized resume following these strict guidelines:

1. Data Usage:
   - ONLY use information from the user's data
   - DO NOT fabricate or assume any information
   - Select only the most relevant experiences and projects

2. Format Requirements:
   - Use a single-column resume structure
   - Maintain consistent formatting
   - Use bullet points for achievements
   - Keep sections clearly separated

3. Content Optimization:
   - Use XYZ formula for experience descriptions: "Accomplished X by implementing Y, which led to Z"
   - Include specific metrics and numbers
   - Use industry-standard action verbs
   - Prioritize relevant keywords naturally

4. ATS Optimization:
   - Include all critical keywords from job description
   - Use standard section headers
   - Maintain clear hierarchy
   - Avoid tables and complex formatting

User's Resume Data: %s

Job Description Analysis: %s

Return optimized resume in JSON format: {
  "summary": string,
  "experience": [
    {
      "title": string,
      "company": string,
      "duration": string,
      "achievements": string[]
    }
  ],
  "projects": [
    {
      "name": string,
      "description": string,
      "technologies": string[],
      "achievements": string[]
    }
  ],
  "skills": string[]
}`
