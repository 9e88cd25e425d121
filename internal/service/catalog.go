// internal/service/catalog.go
package service

type catalogEntry struct {
	Number       int
	Title        string
	Requirements []string
}

type catalogCriterion struct {
	Number  int
	Label   string
	Entries []catalogEntry
}

// qualiopiCatalog is the national reference framework: 7 criteria, 32
// indicators. Indicator numbers are contiguous across criteria.
var qualiopiCatalog = []catalogCriterion{
	{1, "Information du public", []catalogEntry{
		{1, "Diffuser une information accessible au public, détaillée et vérifiable sur les prestations proposées", []string{
			"Prérequis, objectifs, durée, modalités et délais d'accès",
			"Tarifs, contacts, méthodes mobilisées et modalités d'évaluation",
			"Accessibilité aux personnes handicapées",
		}},
		{2, "Diffuser des indicateurs de résultats adaptés à la nature des prestations mises en œuvre et des publics accueillis", []string{
			"Indicateurs de résultats publiés et actualisés",
		}},
		{3, "Informer sur les taux d'obtention des certifications préparées, les possibilités de valider des blocs de compétences, les équivalences, passerelles, suites de parcours et débouchés", []string{
			"Taux d'obtention par certification",
			"Équivalences, passerelles et débouchés",
		}},
	}},
	{2, "Identification précise des objectifs des prestations", []catalogEntry{
		{4, "Analyser le besoin du bénéficiaire en lien avec l'entreprise et/ou le financeur concerné(s)", []string{
			"Outil d'analyse du besoin",
		}},
		{5, "Définir les objectifs opérationnels et évaluables de la prestation", []string{
			"Objectifs opérationnels et évaluables",
		}},
		{6, "Établir les contenus et les modalités de mise en œuvre de la prestation, adaptés aux objectifs définis et aux publics bénéficiaires", []string{
			"Programme de formation",
			"Modalités pédagogiques",
		}},
		{7, "S'assurer de l'adéquation du ou des contenus de la prestation aux exigences de la certification visée", []string{
			"Correspondance entre contenus et référentiel de certification",
		}},
		{8, "Déterminer les procédures de positionnement et d'évaluation des acquis à l'entrée de la prestation", []string{
			"Procédure de positionnement",
			"Évaluation des acquis à l'entrée",
		}},
	}},
	{3, "Adaptation aux publics bénéficiaires", []catalogEntry{
		{9, "Informer les publics bénéficiaires des conditions de déroulement de la prestation", []string{
			"Règlement intérieur",
			"Convocation et livret d'accueil",
		}},
		{10, "Mettre en œuvre et adapter la prestation, l'accompagnement et le suivi aux publics bénéficiaires", []string{
			"Adaptation des modalités de déroulement",
		}},
		{11, "Évaluer l'atteinte par les publics bénéficiaires des objectifs de la prestation", []string{
			"Outils d'évaluation des acquis",
		}},
		{12, "Décrire et mettre en œuvre les mesures pour favoriser l'engagement des bénéficiaires et prévenir les ruptures de parcours", []string{
			"Procédure de prévention des abandons",
		}},
		{13, "Pour les formations en alternance, en lien avec l'entreprise, anticiper avec l'apprenant les missions confiées et leur lien avec les compétences visées", []string{
			"Coordination avec l'entreprise d'accueil",
		}},
		{14, "Mettre en œuvre un accompagnement socio-professionnel, éducatif et relatif à l'exercice de la citoyenneté", []string{
			"Actions d'accompagnement socio-professionnel",
		}},
		{15, "Informer les apprentis de leurs droits et devoirs en tant qu'apprentis et salariés ainsi que des règles applicables en matière de santé et de sécurité", []string{
			"Information sur les droits et devoirs",
		}},
		{16, "S'assurer que les conditions de présentation des bénéficiaires à la certification respectent les exigences formelles de l'autorité de certification", []string{
			"Modalités de présentation à la certification",
		}},
	}},
	{4, "Adéquation des moyens pédagogiques, techniques et d'encadrement", []catalogEntry{
		{17, "Mettre à disposition ou s'assurer de la mise à disposition des moyens humains et techniques adaptés et d'un environnement approprié", []string{
			"Description des locaux et équipements",
			"Moyens humains mobilisés",
		}},
		{18, "Mobiliser et coordonner les différents intervenants internes et/ou externes", []string{
			"Organisation et coordination des intervenants",
		}},
		{19, "Mettre à disposition du bénéficiaire des ressources pédagogiques et permettre à celui-ci de se les approprier", []string{
			"Ressources pédagogiques accessibles",
		}},
		{20, "Disposer d'un personnel dédié à l'appui à la mobilité, d'un référent handicap et d'un conseil de perfectionnement", []string{
			"Référent handicap désigné",
			"Conseil de perfectionnement",
		}},
	}},
	{5, "Qualification et développement des connaissances et compétences des personnels", []catalogEntry{
		{21, "Déterminer, mobiliser et évaluer les compétences des différents intervenants internes et/ou externes", []string{
			"CV et justificatifs de compétences des intervenants",
		}},
		{22, "Entretenir et développer les compétences de ses salariés, adaptées aux prestations qu'il délivre", []string{
			"Plan de développement des compétences",
		}},
	}},
	{6, "Inscription et investissement dans son environnement professionnel", []catalogEntry{
		{23, "Réaliser une veille légale et réglementaire sur le champ de la formation professionnelle et en exploiter les enseignements", []string{
			"Dispositif de veille légale et réglementaire",
		}},
		{24, "Réaliser une veille sur les évolutions des compétences, des métiers et des emplois dans ses secteurs d'intervention et en exploiter les enseignements", []string{
			"Dispositif de veille métiers et emplois",
		}},
		{25, "Réaliser une veille sur les innovations pédagogiques et technologiques permettant une évolution de ses prestations et en exploiter les enseignements", []string{
			"Dispositif de veille pédagogique et technologique",
		}},
		{26, "Mobiliser l'expertise, les outils et les réseaux nécessaires pour accueillir, accompagner ou orienter les publics en situation de handicap", []string{
			"Réseau de partenaires handicap",
		}},
		{27, "Lorsque le prestataire fait appel à la sous-traitance ou au portage salarial, il s'assure du respect de la conformité au présent référentiel", []string{
			"Contrôle des sous-traitants",
		}},
		{28, "Lorsque les prestations comprennent des périodes de formation en situation de travail, mobiliser son réseau de partenaires socio-économiques", []string{
			"Réseau de partenaires socio-économiques",
		}},
		{29, "Développer des actions qui concourent à l'insertion professionnelle ou la poursuite d'étude", []string{
			"Actions d'insertion professionnelle",
		}},
	}},
	{7, "Recueil et prise en compte des appréciations et des réclamations", []catalogEntry{
		{30, "Recueillir les appréciations des parties prenantes", []string{
			"Questionnaires de satisfaction",
		}},
		{31, "Mettre en œuvre des modalités de traitement des difficultés rencontrées par les parties prenantes, des réclamations exprimées par ces dernières, des aléas survenus en cours de prestation", []string{
			"Procédure de traitement des réclamations",
		}},
		{32, "Mettre en œuvre des mesures d'amélioration à partir de l'analyse des appréciations et des réclamations", []string{
			"Plan d'amélioration continue",
		}},
	}},
}

type defaultActionCategory struct {
	Label string
	Color string
}

var defaultActionCategories = []defaultActionCategory{
	{"Veille", "#3b82f6"},
	{"Amélioration continue", "#f59e0b"},
	{"Réclamation", "#ef4444"},
	{"Dysfonctionnement", "#dc2626"},
	{"Formation", "#10b981"},
}
