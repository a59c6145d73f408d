package client

import (
	"encoding/json"
	"fmt"

	"go-gql-cache/internal/models"
)

const rateLimitQuery = `query {
  rateLimit {
    limit
    remaining
    used
    resetAt
  }
}`

const repositoryQuery = `query ($owner: String!, $name: String!) {
  repository(owner: $owner, name: $name) {
    name
    description
    stargazerCount
    url
    updatedAt
    owner {
      login
    }
  }
}`

const repositoryListQuery = `query ($owner: String!) {
  repositoryOwner(login: $owner) {
    repositories(first: 100, orderBy: {field: UPDATED_AT, direction: DESC}) {
      totalCount
      nodes {
        name
        description
        stargazerCount
        url
        updatedAt
      }
    }
  }
}`

const searchRepositoriesQuery = `query ($query: String!) {
  search(query: $query, type: REPOSITORY, first: 20) {
    repositoryCount
    nodes {
      ... on Repository {
        name
        description
        stargazerCount
        url
        updatedAt
        owner {
          login
        }
      }
    }
  }
}`

// repositoryNode matches the wire shape of a repository selection
type repositoryNode struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	StargazerCount int    `json:"stargazerCount"`
	URL            string `json:"url"`
	UpdatedAt      string `json:"updatedAt"`
	Owner          struct {
		Login string `json:"login"`
	} `json:"owner"`
}

func (n repositoryNode) toModel() models.Repository {
	return models.Repository{
		Name:           n.Name,
		Owner:          n.Owner.Login,
		Description:    n.Description,
		StargazerCount: n.StargazerCount,
		URL:            n.URL,
		UpdatedAt:      n.UpdatedAt,
	}
}

func parseRepository(data json.RawMessage) (*models.Repository, error) {
	var envelope struct {
		Repository *repositoryNode `json:"repository"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode repository response: %w", err)
	}
	if envelope.Repository == nil {
		return nil, fmt.Errorf("repository not found")
	}
	repo := envelope.Repository.toModel()
	return &repo, nil
}

func parseRepositoryList(data json.RawMessage) (*models.RepositoryList, error) {
	var envelope struct {
		RepositoryOwner *struct {
			Repositories struct {
				TotalCount int              `json:"totalCount"`
				Nodes      []repositoryNode `json:"nodes"`
			} `json:"repositories"`
		} `json:"repositoryOwner"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode repository list response: %w", err)
	}
	if envelope.RepositoryOwner == nil {
		return nil, fmt.Errorf("repository owner not found")
	}

	list := &models.RepositoryList{
		TotalCount:   envelope.RepositoryOwner.Repositories.TotalCount,
		Repositories: make([]models.Repository, 0, len(envelope.RepositoryOwner.Repositories.Nodes)),
	}
	for _, node := range envelope.RepositoryOwner.Repositories.Nodes {
		list.Repositories = append(list.Repositories, node.toModel())
	}
	return list, nil
}

func parseSearchResult(data json.RawMessage) (*models.SearchResult, error) {
	var envelope struct {
		Search struct {
			RepositoryCount int              `json:"repositoryCount"`
			Nodes           []repositoryNode `json:"nodes"`
		} `json:"search"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	result := &models.SearchResult{
		TotalCount:   envelope.Search.RepositoryCount,
		Repositories: make([]models.Repository, 0, len(envelope.Search.Nodes)),
	}
	for _, node := range envelope.Search.Nodes {
		result.Repositories = append(result.Repositories, node.toModel())
	}
	return result, nil
}

// RepositoryBatchOperation builds a batchable point lookup for one
// repository. The selection references $owner and $name, which the batch
// scheduler namespaces per operation.
func RepositoryBatchOperation(id, owner, name string) *models.BatchOperation {
	return models.NewBatchOperation(
		id,
		models.OperationQuery,
		"repository(owner: $owner, name: $name) { name stargazerCount url }",
		map[string]interface{}{"owner": owner, "name": name},
	)
}
